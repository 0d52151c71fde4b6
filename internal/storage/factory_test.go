package storage

import "testing"

func TestNewStoreKinds(t *testing.T) {
	store, err := NewStore("", "")
	if err != nil {
		t.Fatalf("NewStore(\"\"): %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("default store = %T, want *MemoryStore", store)
	}

	if _, err := NewStore("memory", ""); err != nil {
		t.Fatalf("NewStore(memory): %v", err)
	}
	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatalf("NewStore accepted unknown backend")
	}
}

func TestCloseIfSupported(t *testing.T) {
	if err := CloseIfSupported(NewMemoryStore()); err != nil {
		t.Fatalf("CloseIfSupported(memory): %v", err)
	}
}
