package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(Conflict, "already_returned")
	if KindOf(err) != Conflict {
		t.Fatalf("kind = %s, want Conflict", KindOf(err))
	}
	if ReasonOf(err) != "already_returned" {
		t.Fatalf("reason = %s", ReasonOf(err))
	}
	if err.Error() != "CONFLICT: already_returned" {
		t.Fatalf("message = %s", err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(NotFound, "item_not_found"))
	if KindOf(err) != NotFound {
		t.Fatalf("kind lost through wrapping: %s", KindOf(err))
	}
}

func TestKindOf_Unknown(t *testing.T) {
	if KindOf(errors.New("db down")) != Internal {
		t.Fatal("unknown errors must map to Internal")
	}
	if KindOf(nil) != "" {
		t.Fatal("nil must map to empty kind")
	}
}
