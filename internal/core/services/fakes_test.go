package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeLedgerStore is an in-memory LedgerStore with per-method error
// injection.
type fakeLedgerStore struct {
	mu        sync.Mutex
	customers map[string]domain.Customer
	orders    map[string]domain.Order

	saveOrderErr      error
	setDeliverableErr error
	setDeliveredErr   error

	lastCutoff time.Time
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		customers: make(map[string]domain.Customer),
		orders:    make(map[string]domain.Order),
	}
}

func (f *fakeLedgerStore) SaveCustomer(_ context.Context, customer domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeLedgerStore) Customer(_ context.Context, id string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeLedgerStore) CustomerByEmail(_ context.Context, email string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if strings.EqualFold(c.Email, email) {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("customer %s: %w", email, domain.ErrNotFound)
}

func (f *fakeLedgerStore) SaveOrder(_ context.Context, order domain.Order) error {
	if f.saveOrderErr != nil {
		return f.saveOrderErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeLedgerStore) Order(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

func (f *fakeLedgerStore) CompleteOrder(_ context.Context, orderID string, completedAt time.Time, markPremium bool) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if o.Status != domain.OrderPending {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, o.Status, domain.ErrConflict)
	}
	o.Status = domain.OrderCompleted
	o.CompletedAt = completedAt
	f.orders[orderID] = o

	c := f.customers[o.CustomerID]
	c.TotalSpent += o.Amount
	c.PurchaseCount++
	if markPremium {
		c.IsPremium = true
	}
	f.customers[o.CustomerID] = c
	return &o, nil
}

func (f *fakeLedgerStore) TransitionOrder(_ context.Context, orderID string, to domain.OrderStatus) error {
	if !to.Terminal() {
		return fmt.Errorf("cannot transition to %s: %w", to, domain.ErrValidation)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if o.Status != domain.OrderCompleted {
		return fmt.Errorf("order %s is not completed: %w", orderID, domain.ErrConflict)
	}
	o.Status = to
	f.orders[orderID] = o
	return nil
}

func (f *fakeLedgerStore) SetDeliverable(_ context.Context, orderID, path string) error {
	if f.setDeliverableErr != nil {
		return f.setDeliverableErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	o.DeliverableGenerated = true
	o.DeliverablePath = path
	f.orders[orderID] = o
	return nil
}

func (f *fakeLedgerStore) SetDelivered(_ context.Context, orderID string) error {
	if f.setDeliveredErr != nil {
		return f.setDeliveredErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	o.Delivered = true
	f.orders[orderID] = o
	return nil
}

func (f *fakeLedgerStore) PendingDeliverables(_ context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.Status == domain.OrderCompleted && !o.Delivered {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLedgerStore) UpsellCandidates(_ context.Context, cutoff time.Time) ([]domain.CandidatePair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCutoff = cutoff
	var out []domain.CandidatePair
	for _, o := range f.orders {
		if o.Status != domain.OrderCompleted || o.CreatedAt.Before(cutoff) {
			continue
		}
		c := f.customers[o.CustomerID]
		if c.IsPremium {
			continue
		}
		out = append(out, domain.CandidatePair{Customer: c, Order: o})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order.ID < out[j].Order.ID })
	return out, nil
}

func (f *fakeLedgerStore) Stats(_ context.Context) (*domain.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &domain.Metrics{TotalCustomers: len(f.customers)}
	for _, c := range f.customers {
		if c.IsPremium {
			m.PremiumCustomers++
		}
	}
	for _, o := range f.orders {
		m.TotalOrders++
		if o.Status == domain.OrderCompleted {
			m.CompletedOrders++
			m.TotalRevenue += o.Amount
		}
	}
	if m.TotalOrders > 0 {
		m.ConversionRate = float64(m.CompletedOrders) / float64(m.TotalOrders) * 100
	}
	if m.CompletedOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue / float64(m.CompletedOrders)
	}
	return m, nil
}

// fakeSymptomStore is an in-memory SymptomStore.
type fakeSymptomStore struct {
	mu         sync.Mutex
	symptoms   map[string]domain.Symptom
	embeddings map[string][]float32

	saveErr error
}

func newFakeSymptomStore() *fakeSymptomStore {
	return &fakeSymptomStore{
		symptoms:   make(map[string]domain.Symptom),
		embeddings: make(map[string][]float32),
	}
}

func (f *fakeSymptomStore) Save(_ context.Context, symptom *domain.Symptom, embedding []float32) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symptoms[symptom.ID] = *symptom
	if embedding != nil {
		f.embeddings[symptom.ID] = embedding
	}
	return nil
}

func (f *fakeSymptomStore) Get(_ context.Context, id string) (*domain.Symptom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.symptoms[id]
	if !ok {
		return nil, fmt.Errorf("symptom %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (f *fakeSymptomStore) FindByText(_ context.Context, text string) (*domain.Symptom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.symptoms {
		if strings.EqualFold(s.Text, text) {
			s := s
			return &s, nil
		}
	}
	return nil, fmt.Errorf("symptom %q: %w", text, domain.ErrNotFound)
}

func (f *fakeSymptomStore) List(_ context.Context) ([]domain.Symptom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Symptom, 0, len(f.symptoms))
	for _, s := range f.symptoms {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSymptomStore) Embeddings(_ context.Context) (map[string][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]float32, len(f.embeddings))
	for id, vec := range f.embeddings {
		out[id] = vec
	}
	return out, nil
}

func (f *fakeSymptomStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.symptoms), nil
}

// fakeCampaignStore is an in-memory CampaignStore.
type fakeCampaignStore struct {
	mu   sync.Mutex
	sent map[string]domain.SentCampaign

	hasErr    error
	recordErr error
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{sent: make(map[string]domain.SentCampaign)}
}

func campaignKey(orderID string, campaign domain.CampaignType) string {
	return orderID + "/" + string(campaign)
}

func (f *fakeCampaignStore) Has(_ context.Context, orderID string, campaign domain.CampaignType) (bool, error) {
	if f.hasErr != nil {
		return false, f.hasErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sent[campaignKey(orderID, campaign)]
	return ok, nil
}

func (f *fakeCampaignStore) Record(_ context.Context, sent domain.SentCampaign) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := campaignKey(sent.OrderID, sent.Campaign)
	if _, ok := f.sent[key]; ok {
		return fmt.Errorf("campaign already recorded: %w", domain.ErrConflict)
	}
	f.sent[key] = sent
	return nil
}

func (f *fakeCampaignStore) CountSince(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if !s.SentAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

// fakeTransport records dispatched messages. failFor rejects specific
// recipients with ErrTransport.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []domain.Message
	failFor map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failFor: make(map[string]bool)}
}

func (f *fakeTransport) Send(_ context.Context, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return fmt.Errorf("sending to %s: %w", msg.To, domain.ErrTransport)
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) messages() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeRenderer returns a deterministic path per order.
type fakeRenderer struct {
	mu      sync.Mutex
	renders []domain.Deliverable
	err     error
}

func (f *fakeRenderer) Render(_ context.Context, deliverable domain.Deliverable) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, deliverable)
	return "deliverables/" + deliverable.OrderID + ".html", nil
}

// fakeEmbedder maps each known text to a fixed vector; unknown texts
// get a zero vector of the right size.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return make([]float32, 3), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 3 }
func (f *fakeEmbedder) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeIndex returns a canned hit list regardless of the query.
type fakeIndex struct {
	mu    sync.Mutex
	added map[string][]float32
	hits  []driven.VectorHit
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{added: make(map[string][]float32)}
}

func (f *fakeIndex) Add(_ context.Context, symptomID string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[symptomID] = embedding
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, symptomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.added, symptomID)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) Close() error { return nil }

// fakeObservationSource hands out its queue once.
type fakeObservationSource struct {
	queue []domain.Observation
	err   error
}

func (f *fakeObservationSource) Pull(context.Context) ([]domain.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.queue
	f.queue = nil
	return out, nil
}

// fakeSchedulerStore is an in-memory SchedulerStore.
type fakeSchedulerStore struct {
	mu      sync.Mutex
	tasks   map[string]domain.ScheduledTask
	results []domain.TaskResult
}

func newFakeSchedulerStore() *fakeSchedulerStore {
	return &fakeSchedulerStore{tasks: make(map[string]domain.ScheduledTask)}
}

func (f *fakeSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ScheduledTask, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrValidation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *result)
	return nil
}

func (f *fakeSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TaskResult
	for i := len(f.results) - 1; i >= 0 && len(out) < limit; i-- {
		if f.results[i].TaskID == taskID {
			out = append(out, f.results[i])
		}
	}
	return out, nil
}

func (f *fakeSchedulerStore) PruneHistory(context.Context, int) error { return nil }

func (f *fakeSchedulerStore) resultsFor(taskID string) []domain.TaskResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TaskResult
	for _, r := range f.results {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out
}
