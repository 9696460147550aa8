package notify

import "testing"

func TestSubscribeReceivesAll(t *testing.T) {
	n := New()
	var got []Change
	n.Subscribe(func(c Change) { got = append(got, c) })

	n.Notify(Change{Key: "db/host", Type: ChangeSet, NewValue: "localhost"})
	n.Notify(Change{Key: "timeout", Type: ChangeRemove, OldValue: "30"})

	if len(got) != 2 {
		t.Fatalf("received %d changes, want 2", len(got))
	}
	if got[0].Key != "db/host" || got[0].NewValue != "localhost" {
		t.Errorf("unexpected first change: %+v", got[0])
	}
	if got[1].Type != ChangeRemove || got[1].OldValue != "30" {
		t.Errorf("unexpected second change: %+v", got[1])
	}
}

func TestSubscribeKeyPrefixMatching(t *testing.T) {
	n := New()
	var got []Change
	n.SubscribeKey("db", func(c Change) { got = append(got, c) })

	n.Notify(Change{Key: "db", Type: ChangeSet})
	n.Notify(Change{Key: "db/host", Type: ChangeSet})
	n.Notify(Change{Key: "db/pool/size", Type: ChangeSet})
	n.Notify(Change{Key: "dbx", Type: ChangeSet})
	n.Notify(Change{Key: "timeout", Type: ChangeSet})

	if len(got) != 3 {
		t.Fatalf("received %d changes, want 3: %+v", len(got), got)
	}
}

func TestSubscribeKeyReceivesKeylessEvents(t *testing.T) {
	n := New()
	var got []Change
	n.SubscribeKey("db", func(c Change) { got = append(got, c) })

	n.Notify(Change{Type: ChangeClear})
	n.Notify(Change{Type: ChangeReload, Location: "/etc/acme/acme.conf"})

	if len(got) != 2 {
		t.Fatalf("clear and reload should reach key subscribers, got %d events", len(got))
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()
	count := 0
	sub := n.Subscribe(func(Change) { count++ })

	n.Notify(Change{Key: "a", Type: ChangeSet})
	sub.Unsubscribe()
	sub.Unsubscribe()
	n.Notify(Change{Key: "b", Type: ChangeSet})

	if count != 1 {
		t.Errorf("received %d changes after unsubscribe, want 1", count)
	}
}

func TestObserverMayUnsubscribeDuringDelivery(t *testing.T) {
	n := New()
	count := 0
	var sub *Subscription
	sub = n.Subscribe(func(Change) {
		count++
		sub.Unsubscribe()
	})

	n.Notify(Change{Key: "a", Type: ChangeSet})
	n.Notify(Change{Key: "b", Type: ChangeSet})

	if count != 1 {
		t.Errorf("received %d changes, want 1", count)
	}
}

func TestChangeTypeString(t *testing.T) {
	tests := []struct {
		typ  ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeRemove, "remove"},
		{ChangeClear, "clear"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("ChangeType(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
