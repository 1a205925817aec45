package persona

import "testing"

func TestMemoryStoreFindDefault(t *testing.T) {
	store := NewMemoryStore(Seed())

	p, ok := store.FindByID(DefaultID)
	if !ok {
		t.Fatalf("expected %s persona", DefaultID)
	}
	if p.Greeting == "" || len(p.QuickQuestions) != 3 {
		t.Fatalf("unexpected persona %+v", p)
	}

	if _, ok := store.FindByID("missing"); ok {
		t.Fatal("expected missing persona lookup to fail")
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	list := store.List()
	list[0].Name = "changed"

	if got, _ := store.FindByID(DefaultID); got.Name != "Tax Monster" {
		t.Fatalf("store mutated through List, name=%s", got.Name)
	}
}
