package knowledge

import "context"

// DisabledStore stands in when no Weaviate endpoint is configured. Every
// lookup comes back empty, so calls run in anonymous receptionist mode and
// the search tool reports no matches.
type DisabledStore struct{}

func NewDisabledStore() *DisabledStore {
	return &DisabledStore{}
}

func (*DisabledStore) Search(_ context.Context, _ string) ([]Snippet, error) {
	return nil, nil
}

func (*DisabledStore) PriorContext(_ context.Context, _ string) ([]ContextRecord, error) {
	return nil, nil
}

func (*DisabledStore) HasVisualEvidence(_ context.Context, _ string) (bool, error) {
	return false, nil
}
