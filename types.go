package topofuzz

import "encoding/json"

// Choice records one scheduling decision made during a nemesis run: which
// membership operation was issued at which round, or a client request.
type Choice struct {
	Type    string
	Round   int
	Kind    OpKind
	Node    string
	JoinVia string
	Request string
}

func (c *Choice) Copy() *Choice {
	return &Choice{
		Type:    c.Type,
		Round:   c.Round,
		Kind:    c.Kind,
		Node:    c.Node,
		JoinVia: c.JoinVia,
		Request: c.Request,
	}
}

// Op returns the membership operation this choice recorded.
func (c *Choice) Op() Op {
	return Op{
		Kind:    c.Kind,
		Node:    c.Node,
		JoinVia: c.JoinVia,
	}
}

// Event is one cluster-facing action taken during a run, recorded for
// trace output.
type Event struct {
	Name   string
	Node   string `json:",omitempty"`
	Params map[string]interface{}
}

func (e *Event) Copy() *Event {
	new := &Event{
		Name:   e.Name,
		Node:   e.Node,
		Params: make(map[string]interface{}),
	}
	for k, v := range e.Params {
		new.Params[k] = v
	}
	return new
}

type Queue[T any] struct {
	q []T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		q: make([]T, 0),
	}
}

func (q *Queue[T]) Push(elem T) {
	q.q = append(q.q, elem)
}

func (q *Queue[T]) Pop() (elem T, ok bool) {
	if len(q.q) < 1 {
		ok = false
		return
	}
	elem = q.q[0]
	q.q = q.q[1:]
	ok = true
	return
}

func (q *Queue[T]) Size() int {
	return len(q.q)
}

func (q *Queue[T]) Reset() {
	q.q = make([]T, 0)
}

type List[T any] struct {
	l []T
}

func NewList[T any]() *List[T] {
	return &List[T]{
		l: make([]T, 0),
	}
}

func (l *List[T]) Append(elem T) {
	l.l = append(l.l, elem)
}

func (l *List[T]) Size() int {
	return len(l.l)
}

func (l *List[T]) Get(index int) (elem T, ok bool) {
	if len(l.l) <= index {
		ok = false
		return
	}
	elem = l.l[index]
	ok = true
	return
}

func (l *List[T]) Set(index int, elem T) bool {
	if len(l.l) <= index {
		return false
	}
	l.l[index] = elem
	return true
}

func (l *List[T]) Iter() []T {
	return l.l
}

func (l *List[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.l)
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	values := make([]T, 0)
	err := json.Unmarshal(data, &values)
	if err != nil {
		return err
	}
	l.l = values
	return nil
}
