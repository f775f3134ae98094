package uploader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auralens/auralens/internal/errors"
	"github.com/auralens/auralens/pkg/preview"
	"github.com/auralens/auralens/pkg/toast"
	"github.com/auralens/auralens/pkg/upload"
)

type fakeRef struct {
	url      string
	releases int
}

func (r *fakeRef) URL() string { return r.url }

func (r *fakeRef) Release() error {
	r.releases++
	return nil
}

type fakePreviewer struct {
	refs []*fakeRef
}

func (p *fakePreviewer) CreatePreview(name, mediaType string, data []byte) PreviewRef {
	ref := &fakeRef{url: "/_preview/" + name}
	p.refs = append(p.refs, ref)
	return ref
}

// live counts refs that were created and not released.
func (p *fakePreviewer) live() int {
	n := 0
	for _, r := range p.refs {
		if r.releases == 0 {
			n++
		}
	}
	return n
}

type recordingEmitter struct {
	events []map[string]any
}

func (e *recordingEmitter) Emit(name string, detail any) {
	if name != toast.EventName {
		return
	}
	e.events = append(e.events, detail.(map[string]any))
}

func (e *recordingEmitter) last() map[string]any {
	if len(e.events) == 0 {
		return nil
	}
	return e.events[len(e.events)-1]
}

type countingObserver struct {
	accepted []string
	rejected []string
}

func (o *countingObserver) FileAccepted(mediaType string) { o.accepted = append(o.accepted, mediaType) }
func (o *countingObserver) FileRejected(reason string)    { o.rejected = append(o.rejected, reason) }

func image(name string) upload.Candidate {
	return &upload.Blob{Filename: name, ContentType: "image/png", Data: []byte("png")}
}

func text(name string) upload.Candidate {
	return &upload.Blob{Filename: name, ContentType: "text/plain", Data: []byte("hello")}
}

type fixture struct {
	ctrl     *Controller
	previews *fakePreviewer
	toasts   *recordingEmitter
	observer *countingObserver
	changes  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		previews: &fakePreviewer{},
		toasts:   &recordingEmitter{},
		observer: &countingObserver{},
	}
	f.ctrl = New(f.previews, WithEmitter(f.toasts), WithObserver(f.observer))
	f.ctrl.OnChange(func() { f.changes++ })
	return f
}

func TestAcceptFilesEmptyLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	before := f.ctrl.State()

	err := f.ctrl.AcceptFiles(nil)

	require.Error(t, err)
	assert.Equal(t, "E201", errors.Code(err))
	assert.Equal(t, before, f.ctrl.State())
	assert.Zero(t, f.changes)
	assert.Empty(t, f.previews.refs)
}

func TestAcceptFilesRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("cat.png")}))
	before := f.ctrl.State()

	err := f.ctrl.AcceptFiles([]upload.Candidate{text("notes.txt"), image("dog.png")})

	require.Error(t, err)
	assert.Equal(t, "E200", errors.Code(err))
	after := f.ctrl.State()
	assert.Same(t, before.SelectedFile, after.SelectedFile)
	assert.Same(t, before.Preview, after.Preview)
	assert.Len(t, f.previews.refs, 1)
	assert.Zero(t, f.previews.refs[0].releases)
	assert.Equal(t, []string{"type"}, f.observer.rejected)
}

func TestAcceptFilesOnlyConsidersFirst(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("a.png"), image("b.png")}))

	assert.Equal(t, "a.png", f.ctrl.State().SelectedFile.Name())
	assert.Len(t, f.previews.refs, 1)
}

func TestMediaTypeCheckIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	upper := &upload.Blob{Filename: "X.JPG", ContentType: " IMAGE/JPEG", Data: []byte("jpg")}

	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{upper}))
	assert.Equal(t, []string{" IMAGE/JPEG"}, f.observer.accepted)
}

func TestSecondSelectionReleasesFirstPreviewOnce(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("first.png")}))
	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("second.png")}))

	require.Len(t, f.previews.refs, 2)
	assert.Equal(t, 1, f.previews.refs[0].releases)
	assert.Zero(t, f.previews.refs[1].releases)
	assert.Equal(t, 1, f.previews.live())

	s := f.ctrl.State()
	assert.Equal(t, "second.png", s.SelectedFile.Name())
	assert.Same(t, f.previews.refs[1], s.Preview)
	assert.Equal(t, 2, f.changes)
}

func TestPreviewPresentIffFileSelected(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.State()
	assert.Nil(t, s.SelectedFile)
	assert.Nil(t, s.Preview)

	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("cat.png")}))
	s = f.ctrl.State()
	assert.NotNil(t, s.SelectedFile)
	assert.NotNil(t, s.Preview)
}

func TestDragOverThenLeave(t *testing.T) {
	f := newFixture(t)
	e := &Event{}

	f.ctrl.HandleDragOver(e)
	assert.True(t, f.ctrl.State().DragActive)
	assert.True(t, e.DefaultPrevented())

	leave := &Event{}
	f.ctrl.HandleDragLeave(leave)
	assert.False(t, f.ctrl.State().DragActive)
	assert.True(t, leave.DefaultPrevented())
}

func TestDragOverThenDropImage(t *testing.T) {
	f := newFixture(t)

	f.ctrl.HandleDragOver(&Event{})
	drop := &Event{Files: []upload.Candidate{image("cat.png")}}
	require.NoError(t, f.ctrl.HandleDrop(drop))

	s := f.ctrl.State()
	assert.False(t, s.DragActive)
	assert.True(t, drop.DefaultPrevented())
	require.NotNil(t, s.SelectedFile)
	assert.Equal(t, "cat.png", s.SelectedFile.Name())
	assert.Empty(t, f.toasts.events)
}

func TestDragOverTwiceEqualsOnce(t *testing.T) {
	once := newFixture(t)
	once.ctrl.HandleDragOver(&Event{})

	twice := newFixture(t)
	twice.ctrl.HandleDragOver(&Event{})
	twice.ctrl.HandleDragOver(&Event{})

	assert.Equal(t, once.ctrl.State(), twice.ctrl.State())
	assert.Equal(t, once.changes, twice.changes)
}

func TestDropOfNonImageWarns(t *testing.T) {
	f := newFixture(t)
	f.ctrl.HandleDragOver(&Event{})

	err := f.ctrl.HandleDrop(&Event{Files: []upload.Candidate{text("notes.txt")}})

	assert.Equal(t, "E200", errors.Code(err))
	assert.False(t, f.ctrl.State().DragActive)
	assert.Nil(t, f.ctrl.State().SelectedFile)
	require.Len(t, f.toasts.events, 1)
	assert.Equal(t, "warning", f.toasts.last()["level"])
	assert.Contains(t, f.toasts.last()["message"], "notes.txt")
}

func TestEmptyDropWarnsButCancelledPickerIsSilent(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "E201", errors.Code(f.ctrl.HandleDrop(&Event{})))
	require.Len(t, f.toasts.events, 1)
	assert.Equal(t, MsgEmptyDrop, f.toasts.last()["message"])

	assert.Equal(t, "E201", errors.Code(f.ctrl.HandlePickerChange(&Event{})))
	assert.Len(t, f.toasts.events, 1)
}

func TestPickerChangeAcceptsImage(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.HandlePickerChange(&Event{Files: []upload.Candidate{image("cat.png")}}))

	assert.Equal(t, "cat.png", f.ctrl.State().SelectedFile.Name())
	assert.Equal(t, []string{"image/png"}, f.observer.accepted)
}

func TestSetPromptTextReplaces(t *testing.T) {
	f := newFixture(t)

	f.ctrl.SetPromptText("add sunset")
	f.ctrl.SetPromptText("remove background")

	assert.Equal(t, "remove background", f.ctrl.State().PromptText)
	assert.Equal(t, 2, f.changes)
}

func TestSubmitWithoutFile(t *testing.T) {
	f := newFixture(t)

	msg := f.ctrl.Submit()

	assert.Equal(t, MsgUploadFirst, msg)
	require.Len(t, f.toasts.events, 1)
	assert.Equal(t, "info", f.toasts.last()["level"])
	assert.Equal(t, MsgUploadFirst, f.toasts.last()["message"])
}

func TestSubmitWithFileAndEmptyPrompt(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("cat.png")}))

	msg := f.ctrl.Submit()

	assert.Equal(t, "„cat.png“ ist bereit zur Bearbeitung mit Wunsch: \"—\"", msg)
}

func TestSubmitWithFileAndPrompt(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("cat.png")}))
	f.ctrl.SetPromptText("add sunset")

	msg := f.ctrl.Submit()

	assert.Contains(t, msg, "cat.png")
	assert.Contains(t, msg, "add sunset")
}

func TestCloseReleasesPreviewOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{image("cat.png")}))

	require.NoError(t, f.ctrl.Close())
	require.NoError(t, f.ctrl.Close())

	assert.Equal(t, 1, f.previews.refs[0].releases)
	assert.Equal(t, State{}, f.ctrl.State())
}

func TestClosedControllerRefusesFiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Close())

	err := f.ctrl.AcceptFiles([]upload.Candidate{image("cat.png")})

	assert.Equal(t, "E204", errors.Code(err))
	assert.Empty(t, f.previews.refs)
}

func saveTemp(t *testing.T, store *upload.MemoryStore, name, mediaType string) *upload.Pending {
	t.Helper()
	id, err := store.Save(name, mediaType, 3, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	return upload.NewPending(store, upload.Descriptor{ID: id, Name: name, Type: mediaType, Size: 3})
}

func TestRejectedCandidatesAreDiscarded(t *testing.T) {
	f := newFixture(t)
	store := upload.NewMemoryStore(0)
	notes := saveTemp(t, store, "notes.txt", "text/plain")
	cat := saveTemp(t, store, "cat.png", "image/png")

	err := f.ctrl.AcceptFiles([]upload.Candidate{notes, cat})

	assert.Equal(t, "E200", errors.Code(err))
	assert.False(t, store.Has(notes.TempID()))
	assert.False(t, store.Has(cat.TempID()))
	assert.Zero(t, store.Len())
}

func TestAcceptedCandidateIsClaimed(t *testing.T) {
	f := newFixture(t)
	store := upload.NewMemoryStore(0)
	cat := saveTemp(t, store, "cat.png", "image/png")
	extra := saveTemp(t, store, "dog.png", "image/png")

	require.NoError(t, f.ctrl.AcceptFiles([]upload.Candidate{cat, extra}))

	assert.Zero(t, store.Len())
	assert.Same(t, upload.Candidate(cat), f.ctrl.State().SelectedFile)
}

func TestUnreadableFileWarns(t *testing.T) {
	f := newFixture(t)
	big := upload.NewPending(nil, upload.Descriptor{Name: "huge.png", Type: "image/png", Error: upload.ClientErrTooLarge})

	err := f.ctrl.HandlePickerChange(&Event{Files: []upload.Candidate{big}})

	assert.Equal(t, "E203", errors.Code(err))
	assert.Nil(t, f.ctrl.State().SelectedFile)
	require.Len(t, f.toasts.events, 1)
	assert.Contains(t, f.toasts.last()["message"], "huge.png")
	assert.Equal(t, []string{"unreadable"}, f.observer.rejected)
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t)
	calls := 0
	unsubscribe := f.ctrl.OnChange(func() { calls++ })

	f.ctrl.SetPromptText("a")
	unsubscribe()
	f.ctrl.SetPromptText("b")

	assert.Equal(t, 1, calls)
}

func TestFromRegistryServesAndReleases(t *testing.T) {
	reg := preview.NewRegistry()
	ctrl := New(FromRegistry(reg))

	require.NoError(t, ctrl.AcceptFiles([]upload.Candidate{image("a.png")}))
	require.NoError(t, ctrl.AcceptFiles([]upload.Candidate{image("b.png")}))
	assert.Equal(t, 1, reg.Live())

	require.NoError(t, ctrl.Close())
	assert.Zero(t, reg.Live())
}

func TestSubmitMessage(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"no file", State{PromptText: "ignored"}, MsgUploadFirst},
		{"placeholder", State{SelectedFile: image("x.png")}, "„x.png“ ist bereit zur Bearbeitung mit Wunsch: \"—\""},
		{"prompt", State{SelectedFile: image("x.png"), PromptText: "mehr Licht"}, "„x.png“ ist bereit zur Bearbeitung mit Wunsch: \"mehr Licht\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubmitMessage(tt.state))
		})
	}
}
