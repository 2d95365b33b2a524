package registry

import "testing"

func TestCollectionRegistryExists(t *testing.T) {
	r := NewCollectionRegistry("")
	r.OnConfig(1, map[string]map[string]string{
		"collection": {"orders": `{"user": "acme"}`},
	})

	if !r.Exists("acme", "orders") {
		t.Error("expected orders collection to be registered for acme")
	}
	if r.Exists("acme", "invoices") {
		t.Error("invoices should not be registered")
	}
	if r.Exists("other", "orders") {
		t.Error("orders belongs to acme, not other")
	}
}

func TestCollectionRegistryCreateDeleteEvents(t *testing.T) {
	r := NewCollectionRegistry("")

	var events []CollectionEvent
	r.Subscribe(func(e CollectionEvent) {
		events = append(events, e)
	})

	r.OnConfig(1, map[string]map[string]string{
		"collection": {"orders": `{"user": "acme"}`},
	})
	if len(events) != 1 || !events[0].Created {
		t.Fatalf("expected one create event, got %v", events)
	}

	events = nil
	r.OnConfig(2, map[string]map[string]string{
		"collection": {},
	})
	if len(events) != 1 || events[0].Created {
		t.Fatalf("expected one delete event, got %v", events)
	}
	if events[0].User != "acme" || events[0].Collection != "orders" {
		t.Errorf("delete event = %+v", events[0])
	}
}

func TestCollectionRegistrySkipsMalformedEntries(t *testing.T) {
	r := NewCollectionRegistry("")
	r.OnConfig(1, map[string]map[string]string{
		"collection": {
			"orders":  `{"user": "acme"}`,
			"invalid": `not json`,
			"no_user": `{}`,
		},
	})

	if !r.Exists("acme", "orders") {
		t.Error("valid entry should still register")
	}
}
