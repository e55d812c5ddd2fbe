package tasks

import "testing"

func TestBeginEndIsBusy(t *testing.T) {
	r := NewRegistry()

	if r.IsBusy("a", KindImage) {
		t.Fatal("fresh registry must not report busy")
	}
	if !r.Begin("a", KindImage) {
		t.Fatal("first Begin must succeed")
	}
	if !r.IsBusy("a", KindImage) {
		t.Fatal("pair must be busy between Begin and End")
	}
	if r.Begin("a", KindImage) {
		t.Fatal("duplicate Begin must be rejected")
	}
	r.End("a", KindImage)
	if r.IsBusy("a", KindImage) {
		t.Fatal("pair must be idle after End")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.End("never-begun", KindReport)
	if !r.Begin("x", KindReport) {
		t.Fatal("Begin must succeed")
	}
	r.End("x", KindReport)
	r.End("x", KindReport)
	if !r.Begin("x", KindReport) {
		t.Fatal("pair must be reusable after double End")
	}
}

func TestDistinctPairsAreIndependent(t *testing.T) {
	r := NewRegistry()
	if !r.Begin("a", KindImage) || !r.Begin("b", KindImage) || !r.Begin("a", KindReport) {
		t.Fatal("distinct pairs must all begin")
	}
	if !r.IsBusy("a", KindImage) || !r.IsBusy("b", KindImage) || !r.IsBusy("a", KindReport) {
		t.Fatal("all three pairs should be busy")
	}
	r.End("a", KindImage)
	if r.IsBusy("a", KindImage) || !r.IsBusy("b", KindImage) || !r.IsBusy("a", KindReport) {
		t.Fatal("ending one pair must not affect the others")
	}
}

func TestReset(t *testing.T) {
	r := NewRegistry()
	r.Begin("a", KindImage)
	r.Begin("b", KindContacts)
	r.Reset()
	if r.IsBusy("a", KindImage) || r.IsBusy("b", KindContacts) {
		t.Fatal("reset must clear every marker")
	}
}
