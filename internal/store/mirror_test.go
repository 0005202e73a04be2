package store

import "testing"

func TestMirror_PutLandsAfterWait(t *testing.T) {
	facts := NewMemoryFactStore()
	m := NewMirror(facts)

	m.Put("intention:INT-00001", "v")
	m.Wait()

	if _, ok := facts.Get("intention:INT-00001"); !ok {
		t.Error("expected mirrored write to land after Wait")
	}
}

func TestMirror_DeleteRemovesKey(t *testing.T) {
	facts := NewMemoryFactStore()
	m := NewMirror(facts)

	m.Put("k", "v")
	m.Wait()
	m.Delete("k")
	m.Wait()

	if _, ok := facts.Get("k"); ok {
		t.Error("expected mirrored delete to remove the key")
	}
}

func TestMirror_NilSafe(t *testing.T) {
	var m *Mirror
	m.Put("k", "v") // must not panic
	m.Wait()

	over := NewMirror(nil)
	over.Put("k", "v")
	over.Wait()
}
