package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdex/promptdex/internal/index"
	"github.com/promptdex/promptdex/internal/source"
)

type recordingSink struct {
	appended []index.Entry
	rendered [][]index.Entry
	status   []string
	cleared  int
}

func (r *recordingSink) Render(entries []index.Entry) { r.rendered = append(r.rendered, entries) }
func (r *recordingSink) AppendOne(entry index.Entry)  { r.appended = append(r.appended, entry) }
func (r *recordingSink) SetStatus(text string)        { r.status = append(r.status, text) }
func (r *recordingSink) Clear()                       { r.cleared++ }

func userNode(text string) *source.MemNode {
	return source.NewMemNode("div").
		WithAttr(source.AttrRole, "user").
		WithText(text)
}

func newTestPipeline(t *testing.T) (*Pipeline, *index.Store, *recordingSink, *int) {
	t.Helper()
	store := index.New()
	sink := &recordingSink{}
	saves := 0
	p := New(Config{
		Store: store,
		Sink:  sink,
		Save:  func() { saves++ },
	})
	return p, store, sink, &saves
}

func TestIngest_NewEntry(t *testing.T) {
	p, store, sink, saves := newTestPipeline(t)
	node := userNode("how do I sort a map in Go")

	p.Ingest(node)

	// Then: one entry, node tagged and marked, sink notified, save scheduled
	require.Equal(t, 1, store.Len())
	id, ok := node.Attr(source.AttrID)
	require.True(t, ok)
	entry, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "how do I sort a map in Go", entry.Text)

	marker, _ := node.Attr(source.AttrProcessed)
	assert.Equal(t, source.ProcessedValue, marker)
	require.Len(t, sink.appended, 1)
	assert.Equal(t, entry, sink.appended[0])
	assert.Equal(t, 1, *saves)
}

func TestIngest_IdempotentOnProcessedNode(t *testing.T) {
	p, store, sink, saves := newTestPipeline(t)
	node := userNode("hello there")

	p.Ingest(node)
	p.Ingest(node)

	assert.Equal(t, 1, store.Len())
	assert.Len(t, sink.appended, 1)
	assert.Equal(t, 1, *saves)
}

func TestIngest_DuplicateTextTagsExistingID(t *testing.T) {
	p, store, _, saves := newTestPipeline(t)

	first := userNode("please summarize this long article about compilers")
	second := userNode("Please  summarize this long article about compilers")
	p.Ingest(first)
	p.Ingest(second)

	// Then: one entry; the re-render carries the original entry's id so
	// navigation resolves either node
	require.Equal(t, 1, store.Len())
	firstID, _ := first.Attr(source.AttrID)
	secondID, _ := second.Attr(source.AttrID)
	assert.Equal(t, firstID, secondID)

	marker, _ := second.Attr(source.AttrProcessed)
	assert.Equal(t, source.ProcessedValue, marker, "duplicate node is still marked processed")
	assert.Equal(t, 1, *saves, "no save for a rejected duplicate")
}

func TestIngest_MultiPartVariantMerges(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)

	p.Ingest(userNode("please summarize this long article about compilers"))
	p.Ingest(userNode("please summarize this long article about compilers (1/2)"))

	assert.Equal(t, 1, store.Len())
}

func TestIngest_EmptyTextSkippedWithoutMarking(t *testing.T) {
	p, store, _, saves := newTestPipeline(t)
	node := userNode("   \n\t  ")

	p.Ingest(node)

	// Then: nothing indexed and the node stays unmarked, so a later render
	// with actual text is still captured
	assert.Equal(t, 0, store.Len())
	_, marked := node.Attr(source.AttrProcessed)
	assert.False(t, marked)
	assert.Equal(t, 0, *saves)

	node.WithText("now with content")
	p.Ingest(node)
	assert.Equal(t, 1, store.Len())
}

func TestIngest_PrefersSourceNativeID(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)
	node := userNode("what is a channel").WithAttr(source.AttrMessageID, "msg-42")

	p.Ingest(node)

	_, ok := store.Get("msg-42")
	assert.True(t, ok)
	assigned, _ := node.Attr(source.AttrID)
	assert.Equal(t, "msg-42", assigned)
}

func TestIngest_KeepsPreviouslyAssignedID(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)
	node := userNode("what is a goroutine").WithAttr(source.AttrID, "prior-1")

	p.Ingest(node)

	_, ok := store.Get("prior-1")
	assert.True(t, ok)
}

func TestIngest_GeneratedIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := generateID()
		assert.False(t, seen[id], "generated id repeated: %s", id)
		seen[id] = true
	}
}

type faultyNode struct {
	source.Node
}

func (faultyNode) Text() string { panic("detached node") }

func TestScan_FaultyNodeDoesNotAbortSiblings(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)

	p.Ingest(faultyNode{Node: userNode("ignored")})
	p.Ingest(userNode("the survivor"))

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "the survivor", store.Entries()[0].Text)
}

func TestScan_DocumentOrderAndCount(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)
	root := source.NewMemNode("main").Append(
		userNode("alpha"),
		userNode("beta"),
		userNode("alpha"), // re-render of the first
		userNode("gamma"),
	)

	inserted := p.Scan(root)

	assert.Equal(t, 3, inserted)
	var texts []string
	for _, e := range store.Entries() {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, texts)
}

func TestScan_SecondPassIsNoOp(t *testing.T) {
	p, store, sink, _ := newTestPipeline(t)
	root := source.NewMemNode("main").Append(userNode("alpha"), userNode("beta"))

	require.Equal(t, 2, p.Scan(root))
	require.Equal(t, 0, p.Scan(root))

	assert.Equal(t, 2, store.Len())
	assert.Len(t, sink.appended, 2)
}

func TestIngest_GreetingEchoStripped(t *testing.T) {
	p, store, _, _ := newTestPipeline(t)

	p.Ingest(userNode("You said: deploy the service"))
	p.Ingest(userNode("deploy the service"))

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "deploy the service", store.Entries()[0].Text)
}
