package registration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilalbayram/eventscli/internal/events"
)

var testProject = Project{
	OrgID:       "112233",
	OrgCode:     "IMSORG@AdobeOrg",
	ProjectID:   "projectId",
	WorkspaceID: "workspaceId",
}

type call struct {
	Op             string
	Name           string
	RegistrationID string
	Input          events.RegistrationInput
}

type fakeDirectory struct {
	existing map[string]events.Registration
	listErr  error
	failOn   map[string]error
	calls    []call
	nextID   int
}

func newFakeDirectory(existing ...events.Registration) *fakeDirectory {
	return &fakeDirectory{existing: IndexByName(existing), failOn: map[string]error{}}
}

func (f *fakeDirectory) List(_ context.Context, scope events.Scope) (map[string]events.Registration, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if scope.WorkspaceID != testProject.WorkspaceID {
		return nil, fmt.Errorf("unexpected workspace %q", scope.WorkspaceID)
	}
	out := make(map[string]events.Registration, len(f.existing))
	for name, registration := range f.existing {
		out[name] = registration
	}
	return out, nil
}

func (f *fakeDirectory) Create(_ context.Context, _ events.Scope, input events.RegistrationInput) (*events.Registration, error) {
	f.calls = append(f.calls, call{Op: "create", Name: input.Name, Input: input})
	if err := f.failOn["create:"+input.Name]; err != nil {
		return nil, err
	}
	f.nextID++
	return &events.Registration{Name: input.Name, RegistrationID: fmt.Sprintf("NEW%d", f.nextID)}, nil
}

func (f *fakeDirectory) Update(_ context.Context, _ events.Scope, registrationID string, input events.RegistrationInput) (*events.Registration, error) {
	f.calls = append(f.calls, call{Op: "update", Name: input.Name, RegistrationID: registrationID, Input: input})
	if err := f.failOn["update:"+input.Name]; err != nil {
		return nil, err
	}
	return &events.Registration{Name: input.Name, RegistrationID: registrationID}, nil
}

func (f *fakeDirectory) Delete(_ context.Context, _ events.Scope, registrationID string) error {
	f.calls = append(f.calls, call{Op: "delete", RegistrationID: registrationID})
	return f.failOn["delete:"+registrationID]
}

func (f *fakeDirectory) ops(op string) []call {
	out := []call{}
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func newTestResolver() *Resolver {
	return &Resolver{
		APIKey:     "test_api_key",
		MappingRaw: "providerMetadata1:providerId1,providerMetadata2:providerId2",
		Tokens: TokenSourceFunc(func(context.Context) (string, error) {
			return "accessToken", nil
		}),
	}
}

func newTestReconciler(directory *fakeDirectory) *Reconciler {
	return &Reconciler{
		Resolver:  newTestResolver(),
		Directory: func(Identity) Directory { return directory },
	}
}

func journalRegistration(name string) Desired {
	return Desired{
		Name:        name,
		Description: "Registration for IO Events",
		EventsOfInterest: []EventsOfInterestDecl{
			{ProviderMetadata: "providerMetadata1", EventCodes: []string{"event_code_1"}},
		},
	}
}

func webhookRegistration(name string) Desired {
	desired := journalRegistration(name)
	desired.RuntimeAction = "my-package/my-action"
	return desired
}

func TestReconcileCreatesMissingRegistration(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory()
	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("X")},
		Filter:  Journal,
	})
	require.NoError(t, err)

	require.Len(t, directory.ops("create"), 1)
	assert.Empty(t, directory.ops("update"))
	assert.Equal(t, events.RegistrationInput{
		Name:         "X",
		ClientID:     "test_api_key",
		Description:  "Registration for IO Events",
		DeliveryType: "journal",
		EventsOfInterest: []events.EventOfInterest{
			{ProviderID: "providerId1", EventCode: "event_code_1"},
		},
	}, directory.ops("create")[0].Input)
	assert.Equal(t, 1, result.Count(ActionCreated))
	assert.Equal(t, "NEW1", result.Actions[0].RegistrationID)
}

func TestReconcileUpdatesExistingRegistrationByName(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(events.Registration{Name: "X", RegistrationID: "R1", DeliveryType: "journal"})
	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("X")},
		Filter:  Journal,
	})
	require.NoError(t, err)

	assert.Empty(t, directory.ops("create"))
	updates := directory.ops("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "R1", updates[0].RegistrationID)
}

func TestReconcileCarriesRuntimeActionForWebhooks(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory()
	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{webhookRegistration("hook")},
		Filter:  Webhook,
	})
	require.NoError(t, err)

	creates := directory.ops("create")
	require.Len(t, creates, 1)
	assert.Equal(t, "webhook", creates[0].Input.DeliveryType)
	assert.Equal(t, "my-package/my-action", creates[0].Input.RuntimeAction)
}

func TestReconcileIsolatesDeliveryKinds(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(
		events.Registration{Name: "journal-declared", RegistrationID: "RJ", DeliveryType: "journal"},
		events.Registration{Name: "journal-stale", RegistrationID: "RS", DeliveryType: "journal"},
	)
	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("journal-declared"), webhookRegistration("hook")},
		Filter:  Webhook,
		Prune:   true,
	})
	require.NoError(t, err)

	for _, c := range directory.calls {
		assert.NotEqual(t, "journal-declared", c.Name)
		assert.NotEqual(t, "RJ", c.RegistrationID)
		assert.NotEqual(t, "RS", c.RegistrationID)
	}
	assert.Len(t, directory.ops("create"), 1)
	assert.Equal(t, 0, result.Count(ActionDeleted))
}

func TestReconcilePrunesUndeclaredRegistrations(t *testing.T) {
	t.Parallel()

	existing := []events.Registration{
		{Name: "A", RegistrationID: "RA", DeliveryType: "webhook"},
		{Name: "B", RegistrationID: "RB", DeliveryType: "webhook"},
		{Name: "C", RegistrationID: "RC", DeliveryType: "webhook"},
	}
	desired := []Desired{webhookRegistration("A"), webhookRegistration("B")}

	directory := newFakeDirectory(existing...)
	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: desired,
		Filter:  Webhook,
		Prune:   true,
	})
	require.NoError(t, err)
	deletes := directory.ops("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "RC", deletes[0].RegistrationID)
	assert.Equal(t, 1, result.Count(ActionDeleted))
	assert.Equal(t, 2, result.Count(ActionUpdated))

	directory = newFakeDirectory(existing...)
	_, err = newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: desired,
		Filter:  Webhook,
	})
	require.NoError(t, err)
	assert.Empty(t, directory.ops("delete"))
}

func TestReconcilePruneTreatsBatchWebhooksAsWebhooks(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(events.Registration{Name: "old", RegistrationID: "RO", DeliveryType: "WEBHOOK_BATCH"})
	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Filter:  Webhook,
		Prune:   true,
	})
	require.NoError(t, err)
	require.Len(t, directory.ops("delete"), 1)
	assert.Equal(t, "RO", directory.ops("delete")[0].RegistrationID)
}

func TestReconcileSendsDeclaredBatchWebhookVerbatim(t *testing.T) {
	t.Parallel()

	desired := webhookRegistration("batch")
	desired.DeliveryType = "webhook_batch"

	directory := newFakeDirectory(events.Registration{Name: "batch", RegistrationID: "RB", DeliveryType: "webhook_batch"})
	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{desired},
		Filter:  Webhook,
		Prune:   true,
	})
	require.NoError(t, err)

	updates := directory.ops("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "RB", updates[0].RegistrationID)
	assert.Equal(t, "webhook_batch", updates[0].Input.DeliveryType)
	assert.Empty(t, directory.ops("delete"))
	assert.Equal(t, 1, result.Count(ActionUpdated))
}

func TestReconcileKeepsDeclaredNameWithSurroundingSpaces(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(events.Registration{Name: " A ", RegistrationID: "RA", DeliveryType: "webhook"})
	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{webhookRegistration(" A ")},
		Filter:  Webhook,
		Prune:   true,
	})
	require.NoError(t, err)

	updates := directory.ops("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "RA", updates[0].RegistrationID)
	assert.Equal(t, " A ", updates[0].Input.Name)
	assert.Empty(t, directory.ops("delete"))
	assert.Empty(t, directory.ops("create"))
	assert.Equal(t, 0, result.Count(ActionDeleted))
}

func TestReconcileAbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	remoteErr := errors.New("500 Internal Server Error")
	directory := newFakeDirectory()
	directory.failOn["create:second"] = remoteErr

	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("first"), journalRegistration("second"), journalRegistration("third")},
		Filter:  Journal,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, remoteErr)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "create", opErr.Op)
	assert.Equal(t, "second", opErr.Name)
	assert.Contains(t, err.Error(), `create registration "second"`)

	creates := directory.ops("create")
	require.Len(t, creates, 2)
	assert.Equal(t, "first", creates[0].Name)
	assert.Equal(t, "second", creates[1].Name)
	assert.Equal(t, []string{"second"}, result.Failed)
}

func TestReconcileUpdateFailureNamesRegistrationID(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(events.Registration{Name: "X", RegistrationID: "REGID1", DeliveryType: "journal"})
	directory.failOn["update:X"] = errors.New("boom")

	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("X")},
		Filter:  Journal,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `update registration "X" (id REGID1): boom`)
}

func TestReconcileAbortsPruneOnDeleteFailure(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(
		events.Registration{Name: "a", RegistrationID: "RA", DeliveryType: "journal"},
		events.Registration{Name: "b", RegistrationID: "RB", DeliveryType: "journal"},
	)
	directory.failOn["delete:RA"] = errors.New("boom")

	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Filter:  Journal,
		Prune:   true,
	})
	require.Error(t, err)
	assert.Len(t, directory.ops("delete"), 1)
}

func TestReconcileContinueOnErrorCollectsFailures(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory()
	directory.failOn["create:first"] = errors.New("first failed")
	directory.failOn["create:third"] = errors.New("third failed")

	reconciler := newTestReconciler(directory)
	reconciler.Policy = ContinueOnError
	result, err := reconciler.Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("first"), journalRegistration("second"), journalRegistration("third")},
		Filter:  Journal,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
	assert.Contains(t, err.Error(), "third failed")
	assert.Len(t, directory.ops("create"), 3)
	assert.Equal(t, []string{"first", "third"}, result.Failed)
	assert.Equal(t, 1, result.Count(ActionCreated))
}

func TestReconcileAbortsOnUnmappedMetadataBeforeRemoteWrite(t *testing.T) {
	t.Parallel()

	desired := journalRegistration("X")
	desired.EventsOfInterest = append(desired.EventsOfInterest, EventsOfInterestDecl{ProviderMetadata: "unknown", EventCodes: []string{"c"}})

	directory := newFakeDirectory()
	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{desired},
		Filter:  Journal,
	})
	assert.ErrorIs(t, err, ErrUnmappedProviderMetadata)
	assert.Empty(t, directory.calls)
}

func TestReconcileEmptyConfigIsNoOp(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory()
	result, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Filter:  Journal,
	})
	require.NoError(t, err)
	assert.Empty(t, directory.calls)
	assert.Empty(t, result.Actions)
}

func TestReconcileSurfacesListFailure(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory()
	directory.listErr = errors.New("unavailable")
	_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
		Project: testProject,
		Desired: []Desired{journalRegistration("X")},
		Filter:  Journal,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list registrations for workspace workspaceId")
	assert.Empty(t, directory.calls)
}

func TestReconcileSkipsUnknownDeliveryType(t *testing.T) {
	t.Parallel()

	desired := webhookRegistration("stream")
	desired.DeliveryType = "kafka"

	for _, filter := range []DeliveryKind{Webhook, Journal} {
		directory := newFakeDirectory()
		_, err := newTestReconciler(directory).Reconcile(context.Background(), Plan{
			Project: testProject,
			Desired: []Desired{desired},
			Filter:  filter,
		})
		require.NoError(t, err)
		assert.Empty(t, directory.calls)
	}
}

func TestTeardownDeletesDeclaredRegistrationsOnly(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(
		events.Registration{Name: "journal", RegistrationID: "REGID1", DeliveryType: "journal"},
		events.Registration{Name: "hook", RegistrationID: "REGID2", DeliveryType: "webhook"},
		events.Registration{Name: "other", RegistrationID: "REGID3", DeliveryType: "webhook"},
	)
	result, err := newTestReconciler(directory).Teardown(context.Background(), testProject, []Desired{
		journalRegistration("journal"),
		webhookRegistration("hook"),
		journalRegistration("never-created"),
	})
	require.NoError(t, err)

	deletes := directory.ops("delete")
	require.Len(t, deletes, 2)
	assert.Equal(t, "REGID1", deletes[0].RegistrationID)
	assert.Equal(t, "REGID2", deletes[1].RegistrationID)
	assert.Equal(t, 1, result.Count(ActionSkipped))
}

func TestTeardownAbortsOnDeleteFailure(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory(
		events.Registration{Name: "a", RegistrationID: "REGID1"},
		events.Registration{Name: "b", RegistrationID: "REGID2"},
	)
	directory.failOn["delete:REGID1"] = errors.New("boom")

	_, err := newTestReconciler(directory).Teardown(context.Background(), testProject, []Desired{
		journalRegistration("a"),
		journalRegistration("b"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `delete registration "a" (id REGID1): boom`)
	assert.Len(t, directory.ops("delete"), 1)
}

func TestTeardownWithNoRemoteRegistrations(t *testing.T) {
	t.Parallel()

	directory := newFakeDirectory()
	_, err := newTestReconciler(directory).Teardown(context.Background(), testProject, []Desired{journalRegistration("a")})
	require.NoError(t, err)
	assert.Empty(t, directory.ops("delete"))
}
