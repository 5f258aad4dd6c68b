package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Skotchmaster/orbitdine/internal/cart"
	"github.com/Skotchmaster/orbitdine/internal/models"
	"github.com/Skotchmaster/orbitdine/internal/repo"
)

type fakeStore struct {
	mu      sync.Mutex
	orders  map[uint]*models.OrderDetail
	tables  map[uint]*models.Table
	nextID  uint
	writes  int
	failAll error
	failGet error
}

func newFakeStore() *fakeStore {
	s := &fakeStore{orders: map[uint]*models.OrderDetail{}, tables: map[uint]*models.Table{}}
	for i := uint(1); i <= 10; i++ {
		s.tables[i] = &models.Table{ID: i, Number: int(i), Status: models.TableAvailable}
	}
	return s
}

func (s *fakeStore) CreateOrder(_ context.Context, tableID uint, name string, total int64, items []models.NewItem) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return 0, s.failAll
	}
	t, ok := s.tables[tableID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	s.nextID++
	s.writes++
	d := &models.OrderDetail{
		Order: models.Order{
			ID: s.nextID, TableID: tableID, CustomerName: name,
			Status: models.StatusNew, TotalAmount: total, CreatedAt: time.Now().UTC(),
		},
		TableNumber: t.Number,
	}
	for _, it := range items {
		d.Items = append(d.Items, models.OrderItemDetail{OrderItem: models.OrderItem{
			OrderID: s.nextID, MenuItemID: it.MenuItemID, Quantity: it.Quantity, Notes: it.Notes, Price: it.Price,
		}})
	}
	s.orders[d.ID] = d
	t.Status = models.TableOccupied
	return d.ID, nil
}

func (s *fakeStore) FindOrder(_ context.Context, id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	o := d.Order
	return &o, nil
}

func (s *fakeStore) GetOrder(_ context.Context, id uint) (*models.OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	d, ok := s.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeStore) ListActiveOrders(context.Context) ([]models.OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	var out []models.OrderDetail
	for _, d := range s.orders {
		if d.Status != models.StatusCompleted {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uint, st models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.writes++
	d.Status = st
	return nil
}

func (s *fakeStore) CompleteOrder(ctx context.Context, id uint) (bool, error) {
	if err := s.UpdateStatus(ctx, id, models.StatusCompleted); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tableID := s.orders[id].TableID
	for _, d := range s.orders {
		if d.TableID == tableID && d.Status != models.StatusCompleted {
			return false, nil
		}
	}
	if t := s.tables[tableID]; t.Status == models.TableOccupied {
		t.Status = models.TableAvailable
		return true, nil
	}
	return false, nil
}

func (s *fakeStore) GetTable(_ context.Context, id uint) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ListTables(context.Context) ([]models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Table, 0, len(s.tables))
	for i := uint(1); i <= uint(len(s.tables)); i++ {
		out = append(out, *s.tables[i])
	}
	return out, nil
}

func (s *fakeStore) SetTableStatus(_ context.Context, id uint, st models.TableStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return repo.ErrNotFound
	}
	t.Status = st
	return nil
}

func (s *fakeStore) ListMenu(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Starters"}}, nil
}

type notice struct {
	kind    string
	id      uint
	tableID uint
	status  models.OrderStatus
	reqType string
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
	panics  bool
}

func (n *fakeNotifier) add(v notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.panics {
		panic("transport gone")
	}
	n.notices = append(n.notices, v)
}

func (n *fakeNotifier) OrderCreated(_ context.Context, o models.OrderDetail) {
	n.add(notice{kind: "created", id: o.ID, tableID: o.TableID, status: o.Status})
}

func (n *fakeNotifier) OrderStatusChanged(_ context.Context, id, tableID uint, st models.OrderStatus) {
	n.add(notice{kind: "status", id: id, tableID: tableID, status: st})
}

func (n *fakeNotifier) TableServiceRequest(_ context.Context, tableID uint, typ string) {
	n.add(notice{kind: "table", tableID: tableID, reqType: typ})
}

func (n *fakeNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

type memCart struct {
	mu    sync.Mutex
	data  map[string][]cart.Entry
	down  bool
	other error
	sets  int
}

func newMemCart() *memCart { return &memCart{data: map[string][]cart.Entry{}} }

func (m *memCart) check() error {
	if m.down {
		return cart.ErrCacheUnavailable
	}
	return m.other
}

func (m *memCart) Get(_ context.Context, sid string, tid uint) ([]cart.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	return append([]cart.Entry{}, m.data[cart.Key(sid, tid)]...), nil
}

func (m *memCart) Set(_ context.Context, sid string, tid uint, e []cart.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.sets++
	m.data[cart.Key(sid, tid)] = append([]cart.Entry{}, e...)
	return nil
}

func (m *memCart) Clear(_ context.Context, sid string, tid uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	delete(m.data, cart.Key(sid, tid))
	return nil
}

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) UserByUsername(_ context.Context, name string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[name]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := f.users[u.Username]; ok {
		return repo.ErrUserAlreadyExist
	}
	u.ID = uint(len(f.users) + 1)
	f.users[u.Username] = u
	return nil
}

var errBoom = errors.New("boom")
