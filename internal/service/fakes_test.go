package service

import (
	"context"
	"sync"

	"memex-be/pkg/conversation"
	"memex-be/pkg/events"
	"memex-be/pkg/search"
)

type summarizeCall struct {
	text        string
	summaryType conversation.SummaryType
	userQuery   string
}

type fakeProcessor struct {
	intent        map[string]any
	understandErr error
	reply         string
	converseErr   error
	summary       string
	summarizeErr  error

	conversed  []string
	summarized []summarizeCall
}

func (p *fakeProcessor) Understand(_ context.Context, _ string) (map[string]any, error) {
	return p.intent, p.understandErr
}

func (p *fakeProcessor) Converse(_ context.Context, _ string, chatSession string) (string, error) {
	p.conversed = append(p.conversed, chatSession)
	return p.reply, p.converseErr
}

func (p *fakeProcessor) Summarize(_ context.Context, text string, summaryType conversation.SummaryType, userQuery string) (string, error) {
	p.summarized = append(p.summarized, summarizeCall{text: text, summaryType: summaryType, userQuery: userQuery})
	return p.summary, p.summarizeErr
}

type searchCall struct {
	query  string
	count  int
	filter search.SearchType
}

type fakeSearchService struct {
	results []search.Result
	err     error
	calls   []searchCall
}

func (s *fakeSearchService) Search(_ context.Context, query string, count int, filter search.SearchType) ([]search.Result, error) {
	s.calls = append(s.calls, searchCall{query: query, count: count, filter: filter})
	return s.results, s.err
}

func (s *fakeSearchService) Regenerate(context.Context, search.SearchType) ([]search.SearchType, error) {
	return nil, nil
}

func (s *fakeSearchService) Initialized() []search.SearchType {
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type memoryStore struct {
	log     conversation.MetaLog
	found   bool
	loadErr error
	saveErr error
	saves   []conversation.MetaLog
}

func (s *memoryStore) Load(context.Context) (conversation.MetaLog, bool, error) {
	return s.log, s.found, s.loadErr
}

func (s *memoryStore) Save(_ context.Context, log conversation.MetaLog) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, log)
	return nil
}

func turns(n int) []conversation.TurnRecord {
	out := make([]conversation.TurnRecord, n)
	for i := range out {
		out[i] = conversation.TurnRecord{Query: "q", Response: "r"}
	}
	return out
}
