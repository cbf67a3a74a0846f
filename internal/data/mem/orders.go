package mem

import (
	"sort"
	"sync"
	"time"

	"github.com/oif-solver/solver-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type orders struct {
	mu   sync.RWMutex
	byID map[string]data.Order
}

func NewOrders() data.Orders {
	return &orders{byID: make(map[string]data.Order)}
}

// NewOrdersFrom seeds the store with a previously persisted snapshot.
func NewOrdersFrom(snapshot []data.Order) data.Orders {
	byID := make(map[string]data.Order, len(snapshot))
	for _, o := range snapshot {
		byID[o.ID] = o
	}
	return &orders{byID: byID}
}

func (q *orders) Insert(o data.Order) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.byID[o.ID]; ok {
		return errors.From(data.ErrOrderExists, logan.F{"id": o.ID})
	}
	q.byID[o.ID] = o
	return nil
}

func (q *orders) Get(id string) (*data.Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	o, ok := q.byID[id]
	if !ok {
		return nil, data.ErrOrderNotFound
	}
	return &o, nil
}

func (q *orders) Transition(id string, fn func(o *data.Order) error) (*data.Order, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	o, ok := q.byID[id]
	if !ok {
		return nil, data.ErrOrderNotFound
	}
	if err := fn(&o); err != nil {
		return nil, err
	}
	o.UpdatedAt = time.Now().UTC()
	q.byID[id] = o
	return &o, nil
}

func (q *orders) ByStatus(statuses ...data.Status) ([]data.Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var res []data.Order
	for _, o := range q.byID {
		for _, s := range statuses {
			if o.Status == s {
				res = append(res, o)
				break
			}
		}
	}
	sortByCreation(res)
	return res, nil
}

func (q *orders) All() ([]data.Order, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	res := make([]data.Order, 0, len(q.byID))
	for _, o := range q.byID {
		res = append(res, o)
	}
	sortByCreation(res)
	return res, nil
}

func (q *orders) Stats() (data.QueueStats, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var st data.QueueStats
	st.Total = len(q.byID)
	for _, o := range q.byID {
		switch o.Status {
		case data.StatusPending:
			st.Pending++
		case data.StatusProcessing, data.StatusFinalizing:
			st.Processing++
		case data.StatusFilled:
			st.Filled++
		case data.StatusFinalized:
			st.Finalized++
		case data.StatusFailed:
			st.Failed++
		}
	}
	return st, nil
}

func sortByCreation(list []data.Order) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
