package tutor

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEvent_MarshalJSON(t *testing.T) {
	e := Event{
		Kind:      EventAgentSpeak,
		Content:   "hello",
		State:     StateCourseSetup,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"event":"agent_speak","content":"hello","data":{},"state":"course_setup","timestamp":"2026-01-02T03:04:05Z"}`
	if string(data) != want {
		t.Errorf("got  %s\nwant %s", data, want)
	}
}

func TestEvent_MarshalJSON_NullState(t *testing.T) {
	e := NewEvent(EventTransition, "Now it's your turn to try!", nil, "")
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if v, ok := m["state"]; !ok || v != nil {
		t.Errorf("state = %v (present %v), want null", v, ok)
	}

	var back Event
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Kind != EventTransition || back.State != "" || back.Content != e.Content {
		t.Errorf("decoded = %+v", back)
	}
}

func TestChanSink_PreservesOrder(t *testing.T) {
	ch := make(chan Event, 3)
	sink := ChanSink(context.Background(), ch)
	for _, k := range []EventKind{EventStateChange, EventAgentSpeak, EventTransition} {
		sink.Emit(NewEvent(k, "", nil, ""))
	}
	close(ch)

	var got []EventKind
	for e := range ch {
		got = append(got, e.Kind)
	}
	if len(got) != 3 || got[0] != EventStateChange || got[2] != EventTransition {
		t.Errorf("order = %v", got)
	}
}

func TestChanSink_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := ChanSink(ctx, make(chan Event))
	sink.Emit(NewEvent(EventAgentSpeak, "dropped", nil, ""))
}

func TestTee(t *testing.T) {
	var a, b Collector
	Tee(&a, nil, &b).Emit(NewEvent(EventReady, "", nil, ""))
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Error("tee did not reach every sink")
	}
}
