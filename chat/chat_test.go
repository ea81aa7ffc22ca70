package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopchat/shopchat/assemble"
	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/model"
	"github.com/shopchat/shopchat/session"
	"github.com/shopchat/shopchat/tool"
)

// scriptedModel replays canned final responses, one per Generate call; the
// last entry repeats once the script runs out.
type scriptedModel struct {
	mu       sync.Mutex
	script   []model.Response
	requests []model.Request
	err      error
}

func (m *scriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	m.mu.Lock()
	idx := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	respCh := make(chan model.Response, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(respCh)
		defer close(errCh)
		if m.err != nil {
			errCh <- m.err
			return
		}
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		final := m.script[idx]
		if req.Stream {
			for _, word := range strings.Fields(final.Message.Text()) {
				respCh <- model.Response{Partial: true, Message: core.NewAssistantMessage(word + " ")}
			}
		}
		respCh <- final
	}()
	return respCh, errCh
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type toolCall struct {
	name string
	args map[string]any
}

type fakeExecutor struct {
	mu        sync.Mutex
	defs      []model.ToolDefinition
	toolCalls []toolCall
	result    *tool.Result
	callErr   error
}

func (f *fakeExecutor) ListTools(ctx context.Context) ([]model.ToolDefinition, error) {
	return f.defs, nil
}

func (f *fakeExecutor) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	f.mu.Lock()
	f.toolCalls = append(f.toolCalls, toolCall{name: name, args: args})
	f.mu.Unlock()
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &tool.Result{Texts: []string{"ok"}}, nil
}

func cartToolDefs() []model.ToolDefinition {
	return []model.ToolDefinition{{
		Name:        "ecommerce_add_to_cart",
		Description: "Sepete ürün ekler",
		InputSchema: map[string]any{"type": "object"},
	}}
}

func endTurn(text string) model.Response {
	return model.Response{Message: core.NewAssistantMessage(text), StopReason: model.StopEndTurn}
}

func toolUseResponse(text, id, name string, args map[string]any) model.Response {
	msg := core.Message{Role: core.RoleAssistant, Blocks: []core.Block{
		core.TextBlock{Text: text},
		core.ToolUseBlock{ID: id, Name: name, Args: args},
	}}
	return model.Response{Message: msg, StopReason: model.StopToolUse}
}

// historyOf reads a session's history without mutating it.
func historyOf(t *testing.T, store *session.Store, id string) []core.Message {
	t.Helper()
	turn, err := store.BeginTurn(id)
	require.NoError(t, err)
	msgs := turn.Messages()
	turn.Rollback()
	return msgs
}

func newOrchestrator(store *session.Store, m model.Model, exec tool.Executor, optFns ...func(o *Options)) *Orchestrator {
	bridge := tool.NewBridge(exec, logging.NoOpLogger{})
	return NewOrchestrator(store, m, bridge, nil, optFns...)
}

func TestRunTurnSimple(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15", Name: "iPhone 15"}})

	m := &scriptedModel{script: []model.Response{endTurn("iPhone 15 iyi bir seçim.")}}
	o := newOrchestrator(store, m, &fakeExecutor{})

	out, err := o.RunTurn(context.Background(), "s1", "Bu telefon nasıl?")
	require.NoError(t, err)
	assert.Equal(t, "iPhone 15 iyi bir seçim.", out)

	msgs := historyOf(t, store, "s1")
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "Bu telefon nasıl?", msgs[0].Text())
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, 1, m.calls())
}

func TestRunTurnUnknownSession(t *testing.T) {
	store := session.NewStore()
	m := &scriptedModel{script: []model.Response{endTurn("hi")}}
	o := newOrchestrator(store, m, &fakeExecutor{})

	_, err := o.RunTurn(context.Background(), "nope", "merhaba")
	require.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 0, m.calls())
}

func TestRunTurnToolRound(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15", Name: "iPhone 15"}})

	args := map[string]any{"userId": "s1", "sku": "SKU-IP15", "quantity": float64(1)}
	m := &scriptedModel{script: []model.Response{
		toolUseResponse("Ekliyorum.", "toolu_1", "ecommerce_add_to_cart", args),
		endTurn("Sepete ekledim!"),
	}}
	exec := &fakeExecutor{defs: cartToolDefs(), result: &tool.Result{Texts: []string{"Ürün sepete eklendi"}}}
	o := newOrchestrator(store, m, exec)

	out, err := o.RunTurn(context.Background(), "s1", "Sepete ekle")
	require.NoError(t, err)
	assert.Equal(t, "Sepete ekledim!", out)
	assert.Equal(t, 2, m.calls())

	require.Len(t, exec.toolCalls, 1)
	assert.Equal(t, "ecommerce_add_to_cart", exec.toolCalls[0].name)
	assert.Equal(t, args, exec.toolCalls[0].args)

	msgs := historyOf(t, store, "s1")
	require.Len(t, msgs, 4)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].ToolUses(), 1)
	assert.Equal(t, core.RoleUser, msgs[2].Role)
	results, ok := msgs[2].Blocks[0].(core.ToolResultBlock)
	require.True(t, ok)
	assert.Equal(t, "toolu_1", results.ToolUseID)
	assert.Equal(t, "Ürün sepete eklendi", results.Text)
	assert.False(t, results.IsError)
	assert.Equal(t, core.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "Sepete ekledim!", msgs[3].Text())
}

func TestRunTurnMultipleToolUsesOneResultMessage(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	msg := core.Message{Role: core.RoleAssistant, Blocks: []core.Block{
		core.ToolUseBlock{ID: "toolu_1", Name: "ecommerce_add_to_favorites", Args: map[string]any{"sku": "SKU-IP15"}},
		core.ToolUseBlock{ID: "toolu_2", Name: "ecommerce_add_to_favorites", Args: map[string]any{"sku": "SKU-S24"}},
	}}
	m := &scriptedModel{script: []model.Response{
		{Message: msg, StopReason: model.StopToolUse},
		endTurn("İkisini de favorilere ekledim."),
	}}
	exec := &fakeExecutor{defs: cartToolDefs()}
	o := newOrchestrator(store, m, exec)

	_, err := o.RunTurn(context.Background(), "s1", "İkisini de favorile")
	require.NoError(t, err)

	msgs := historyOf(t, store, "s1")
	require.Len(t, msgs, 4)
	resultMsg := msgs[2]
	require.Len(t, resultMsg.Blocks, 2)
	first := resultMsg.Blocks[0].(core.ToolResultBlock)
	second := resultMsg.Blocks[1].(core.ToolResultBlock)
	assert.Equal(t, "toolu_1", first.ToolUseID)
	assert.Equal(t, "toolu_2", second.ToolUseID)
}

func TestRunTurnToolErrorContinuesLoop(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	m := &scriptedModel{script: []model.Response{
		toolUseResponse("", "toolu_1", "ecommerce_add_to_cart", map[string]any{"sku": "INVALID"}),
		endTurn("Bu ürün bulunamadı."),
	}}
	exec := &fakeExecutor{defs: cartToolDefs(), callErr: errors.New("Ürün bulunamadı")}
	o := newOrchestrator(store, m, exec)

	out, err := o.RunTurn(context.Background(), "s1", "INVALID sepete ekle")
	require.NoError(t, err)
	assert.Equal(t, "Bu ürün bulunamadı.", out)

	msgs := historyOf(t, store, "s1")
	result := msgs[2].Blocks[0].(core.ToolResultBlock)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "Tool hatası")
	assert.Contains(t, result.Text, "Ürün bulunamadı")
}

func TestRunTurnRoundCap(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	// The model never stops asking for tools; the loop must cap at
	// MaxRounds tool rounds, so MaxRounds+1 model calls.
	m := &scriptedModel{script: []model.Response{
		toolUseResponse("devam", "toolu_x", "ecommerce_get_cart", map[string]any{}),
	}}
	exec := &fakeExecutor{defs: cartToolDefs()}
	o := newOrchestrator(store, m, exec)

	out, err := o.RunTurn(context.Background(), "s1", "döngü")
	require.NoError(t, err)
	assert.Equal(t, "devam", out)
	assert.Equal(t, DefaultMaxRounds+1, m.calls())
	assert.Len(t, exec.toolCalls, DefaultMaxRounds)

	// user + (assistant + tool results) per round + terminal assistant.
	msgs := historyOf(t, store, "s1")
	assert.Len(t, msgs, 1+2*DefaultMaxRounds+1)
	assert.Equal(t, core.RoleAssistant, msgs[len(msgs)-1].Role)
}

func TestRunTurnModelErrorRollsBack(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	o := newOrchestrator(store, &scriptedModel{script: []model.Response{endTurn("önce")}}, &fakeExecutor{})
	_, err := o.RunTurn(context.Background(), "s1", "ilk mesaj")
	require.NoError(t, err)
	before := historyOf(t, store, "s1")

	failing := &scriptedModel{err: errors.New("api overloaded")}
	o2 := newOrchestrator(store, failing, &fakeExecutor{})
	_, err = o2.RunTurn(context.Background(), "s1", "ikinci mesaj")
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, backendErr.Error(), "api overloaded")

	after := historyOf(t, store, "s1")
	assert.Equal(t, before, after, "history must read as if the failed turn never started")
}

func TestRunTurnEmptyContextShortCircuit(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")

	m := &scriptedModel{script: []model.Response{endTurn("asla")}}
	o := newOrchestrator(store, m, &fakeExecutor{}) // no defs, no products, no gate

	out, err := o.RunTurn(context.Background(), "s1", "merhaba")
	require.NoError(t, err)
	assert.Equal(t, assemble.FallbackMessage, out)
	assert.Equal(t, 0, m.calls())
	assert.Empty(t, historyOf(t, store, "s1"))
}

func TestRunTurnWindowTrim(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	m := &scriptedModel{script: []model.Response{endTurn("tamam")}}
	o := newOrchestrator(store, m, &fakeExecutor{}, func(o *Options) { o.MaxMessages = 4 })

	for i := 0; i < 5; i++ {
		_, err := o.RunTurn(context.Background(), "s1", fmt.Sprintf("mesaj %d", i))
		require.NoError(t, err)
	}

	// Trim happens at turn start: the window holds the 4 most recent
	// pre-model messages, and the terminal assistant message lands after.
	last := m.requests[len(m.requests)-1]
	assert.Len(t, last.Messages, 4)
	assert.Equal(t, "mesaj 4", last.Messages[len(last.Messages)-1].Text())

	msgs := historyOf(t, store, "s1")
	assert.Len(t, msgs, 5)
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
	deltas strings.Builder
	done   int
	errs   []error
}

func (s *recordingSink) Delta(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas.WriteString(text)
	s.events = append(s.events, "delta")
}

func (s *recordingSink) ToolStart(tool string, round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, fmt.Sprintf("tool_start:%s:%d", tool, round))
}

func (s *recordingSink) ToolEnd(tool string, round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, fmt.Sprintf("tool_end:%s:%d", tool, round))
}

func (s *recordingSink) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.events = append(s.events, "done")
}

func (s *recordingSink) Error(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	s.events = append(s.events, "error")
}

func TestRunTurnStreaming(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	m := &scriptedModel{script: []model.Response{
		toolUseResponse("Bakıyorum.", "toolu_1", "ecommerce_get_cart", map[string]any{}),
		endTurn("Sepetinde bir ürün var."),
	}}
	exec := &fakeExecutor{defs: cartToolDefs()}
	o := newOrchestrator(store, m, exec)

	sink := &recordingSink{}
	o.RunTurnStreaming(context.Background(), "s1", "Sepetim?", sink)

	assert.Equal(t, 1, sink.done)
	assert.Empty(t, sink.errs)
	assert.Contains(t, sink.events, "tool_start:ecommerce_get_cart:1")
	assert.Contains(t, sink.events, "tool_end:ecommerce_get_cart:1")
	assert.Contains(t, strings.TrimSpace(sink.deltas.String()), "Sepetinde bir ürün var.")

	// done is the final event.
	assert.Equal(t, "done", sink.events[len(sink.events)-1])

	// Only the final round's text is persisted.
	msgs := historyOf(t, store, "s1")
	assert.Equal(t, "Sepetinde bir ürün var.", msgs[len(msgs)-1].Text())
}

func TestRunTurnStreamingErrorEmitsErrorOnly(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	o := newOrchestrator(store, &scriptedModel{err: errors.New("boom")}, &fakeExecutor{})

	sink := &recordingSink{}
	o.RunTurnStreaming(context.Background(), "s1", "merhaba", sink)

	assert.Zero(t, sink.done)
	require.Len(t, sink.errs, 1)
	assert.Empty(t, historyOf(t, store, "s1"))
}

func TestRunTurnStreamingCancelledEmitsNothingTerminal(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")
	store.AddProducts("s1", []core.Product{{SKU: "SKU-IP15"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(store, &scriptedModel{script: []model.Response{endTurn("x")}}, &fakeExecutor{})
	sink := &recordingSink{}
	o.RunTurnStreaming(ctx, "s1", "merhaba", sink)

	assert.Zero(t, sink.done)
	assert.Empty(t, sink.errs)
	assert.Empty(t, historyOf(t, store, "s1"))
}

func TestRunTurnStreamingShortCircuit(t *testing.T) {
	store := session.NewStore()
	store.Ensure("s1")

	m := &scriptedModel{script: []model.Response{endTurn("asla")}}
	o := newOrchestrator(store, m, &fakeExecutor{})

	sink := &recordingSink{}
	o.RunTurnStreaming(context.Background(), "s1", "merhaba", sink)

	assert.Equal(t, []string{"delta", "done"}, sink.events)
	assert.Equal(t, assemble.FallbackMessage, sink.deltas.String())
	assert.Equal(t, 0, m.calls())
}
