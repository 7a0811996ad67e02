package types

import "testing"

func TestItemState_Terminal(t *testing.T) {
	tests := []struct {
		state ItemState
		want  bool
	}{
		{ItemStatePending, false},
		{ItemStateImageResolved, false},
		{ItemStateBuilding, false},
		{ItemStateMissingImage, true},
		{ItemStateSkippedExisting, true},
		{ItemStateSuccess, true},
		{ItemStateFailed, true},
		{ItemStateCatalogError, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestItemState_Succeeded(t *testing.T) {
	for _, s := range []ItemState{ItemStateSuccess, ItemStateSkippedExisting} {
		if !s.Succeeded() {
			t.Errorf("%s.Succeeded() = false, want true", s)
		}
	}
	for _, s := range []ItemState{ItemStateMissingImage, ItemStateFailed, ItemStateCatalogError} {
		if s.Succeeded() {
			t.Errorf("%s.Succeeded() = true, want false", s)
		}
	}
}
