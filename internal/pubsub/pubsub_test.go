package pubsub

import (
	"errors"
	"testing"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r *recorder) OnNotify(source string) error {
	*r.log = append(*r.log, r.name+":"+source)
	return r.err
}

func TestSubscribeIsIdempotent(t *testing.T) {
	var log []string
	var topic Topic[string]
	a := &recorder{name: "a", log: &log}

	topic.Subscribe(a)
	topic.Subscribe(a)
	topic.Subscribe(nil)

	if topic.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", topic.Len())
	}
	if err := topic.Notify("tick"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(log) != 1 {
		t.Errorf("subscriber notified %d times, want 1", len(log))
	}
}

func TestNotifyOrder(t *testing.T) {
	var log []string
	var topic Topic[string]
	topic.Subscribe(&recorder{name: "a", log: &log})
	topic.Subscribe(&recorder{name: "b", log: &log})
	topic.Subscribe(&recorder{name: "c", log: &log})

	if err := topic.Notify("x"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	want := []string{"a:x", "b:x", "c:x"}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestNotifyStopsAtFirstError(t *testing.T) {
	var log []string
	var topic Topic[string]
	boom := errors.New("boom")
	topic.Subscribe(&recorder{name: "a", log: &log})
	topic.Subscribe(&recorder{name: "b", log: &log, err: boom})
	topic.Subscribe(&recorder{name: "c", log: &log})

	if err := topic.Notify("x"); !errors.Is(err, boom) {
		t.Fatalf("Notify error = %v, want boom", err)
	}
	if len(log) != 2 {
		t.Errorf("notified %v, want only a and b", log)
	}
}

func TestUnsubscribe(t *testing.T) {
	var log []string
	var topic Topic[string]
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", log: &log}
	topic.Subscribe(a)
	topic.Subscribe(b)

	topic.Unsubscribe(a)
	topic.Unsubscribe(a)

	if topic.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", topic.Len())
	}
	_ = topic.Notify("x")
	if len(log) != 1 || log[0] != "b:x" {
		t.Errorf("log = %v, want [b:x]", log)
	}
}

type detacher struct {
	name  string
	topic *Topic[string]
	log   *[]string
}

func (d *detacher) OnNotify(source string) error {
	*d.log = append(*d.log, d.name+":"+source)
	d.topic.Unsubscribe(d)
	return nil
}

func TestUnsubscribeDuringNotify(t *testing.T) {
	var log []string
	var topic Topic[string]
	topic.Subscribe(&detacher{name: "a", topic: &topic, log: &log})
	topic.Subscribe(&recorder{name: "b", log: &log})
	topic.Subscribe(&recorder{name: "c", log: &log})

	if err := topic.Notify("x"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	want := []string{"a:x", "b:x", "c:x"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
	if topic.Len() != 2 {
		t.Errorf("Len() = %d, want 2", topic.Len())
	}

	log = nil
	_ = topic.Notify("y")
	if len(log) != 2 || log[0] != "b:y" || log[1] != "c:y" {
		t.Errorf("second dispatch log = %v, want [b:y c:y]", log)
	}
}
