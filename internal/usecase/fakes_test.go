// File: internal/usecase/fakes_test.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- state store ----

type memStateRepo struct {
	mu     sync.Mutex
	states map[int64]model.State
	writes int
	getErr error
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{states: make(map[int64]model.State)}
}

func (m *memStateRepo) GetState(ctx context.Context, chatID int64) (model.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	s, ok := m.states[chatID]
	return s, ok, nil
}

func (m *memStateRepo) SetState(ctx context.Context, chatID int64, state model.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = state
	m.writes++
	return nil
}

// ---- catalog backend ----

type fakeCatalog struct {
	mu sync.Mutex

	products  map[string]model.Product
	order     []string
	fileURLs  map[string]string
	fileErr   error
	listErr   error
	carts     map[string][]model.CartItem
	customers []model.Customer
	nextItem  int

	cartCreates []string

	// admin side
	files         []model.File
	attached      map[string]string
	uploaded      []string
	deletedFiles  []string
	deletedProds  []string
	createErrName string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: make(map[string]model.Product),
		fileURLs: make(map[string]string),
		carts:    make(map[string][]model.CartItem),
		attached: make(map[string]string),
	}
}

func (f *fakeCatalog) addProduct(p model.Product) {
	f.products[p.ID] = p
	f.order = append(f.order, p.ID)
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Product, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeCatalog) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	var currency string
	for _, it := range f.carts[cartID] {
		total += it.UnitPrice.Amount * int64(it.Quantity)
		currency = it.UnitPrice.Currency
	}
	return &model.Cart{
		ID:           cartID,
		Name:         model.CartName(cartID),
		DisplayTotal: model.Price{Amount: total, Currency: currency}.String(),
	}, nil
}

func (f *fakeCatalog) GetOrCreateCart(ctx context.Context, cartID string) (*model.Cart, error) {
	f.mu.Lock()
	f.cartCreates = append(f.cartCreates, cartID)
	if _, ok := f.carts[cartID]; !ok {
		f.carts[cartID] = nil
	}
	f.mu.Unlock()
	return f.GetCart(ctx, cartID)
}

func (f *fakeCatalog) ListCartItems(ctx context.Context, cartID string) ([]model.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CartItem(nil), f.carts[cartID]...), nil
}

func (f *fakeCatalog) AddCartItem(ctx context.Context, cartID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	f.nextItem++
	f.carts[cartID] = append(f.carts[cartID], model.CartItem{
		ID:        "item-" + strconv.Itoa(f.nextItem),
		ProductID: productID,
		Name:      p.Name,
		Quantity:  quantity,
		UnitPrice: p.Price,
	})
	return nil
}

func (f *fakeCatalog) RemoveCartItem(ctx context.Context, cartID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.carts[cartID]
	for i, it := range items {
		if it.ID == itemID {
			f.carts[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart item %s: %w", itemID, domain.ErrNotFound)
}

func (f *fakeCatalog) CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Customer{ID: "cust-" + strconv.Itoa(len(f.customers)+1), Name: name, Email: email}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeCatalog) FileURL(ctx context.Context, fileID string) (string, error) {
	if f.fileErr != nil {
		return "", f.fileErr
	}
	url, ok := f.fileURLs[fileID]
	if !ok {
		return "", domain.ErrImageNotFound
	}
	return url, nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if p.Name == f.createErrName {
		return nil, fmt.Errorf("backend rejected %s", p.Name)
	}
	p.ID = "prod-" + strconv.Itoa(len(f.order)+1)
	f.addProduct(p)
	return &p, nil
}

func (f *fakeCatalog) DeleteProduct(ctx context.Context, productID string) error {
	delete(f.products, productID)
	f.deletedProds = append(f.deletedProds, productID)
	return nil
}

func (f *fakeCatalog) AttachMainImage(ctx context.Context, productID, fileID string) error {
	f.attached[productID] = fileID
	return nil
}

func (f *fakeCatalog) UploadFileFromURL(ctx context.Context, fileURL string) (*model.File, error) {
	file := model.File{ID: "file-" + strconv.Itoa(len(f.uploaded)+1), Link: fileURL}
	f.uploaded = append(f.uploaded, fileURL)
	f.files = append(f.files, file)
	return &file, nil
}

func (f *fakeCatalog) ListFiles(ctx context.Context) ([]model.File, error) {
	return append([]model.File(nil), f.files...), nil
}

func (f *fakeCatalog) DeleteFile(ctx context.Context, fileID string) error {
	f.deletedFiles = append(f.deletedFiles, fileID)
	return nil
}

// ---- messenger ----

type sentReply struct {
	Kind     string // message | buttons | photo
	Text     string
	Photo    model.Photo
	Keyboard [][]model.Button
}

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sentReply
	deleted  []int
	answered map[string]string
	sendErr  error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{answered: make(map[string]string)}
}

func (m *fakeMessenger) record(r sentReply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, r)
	return nil
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	return m.record(sentReply{Kind: "message", Text: text})
}

func (m *fakeMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]model.Button) error {
	return m.record(sentReply{Kind: "buttons", Text: text, Keyboard: rows})
}

func (m *fakeMessenger) SendPhoto(ctx context.Context, chatID int64, photo model.Photo, caption string, rows [][]model.Button) error {
	return m.record(sentReply{Kind: "photo", Text: caption, Photo: photo, Keyboard: rows})
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered[callbackID] = text
	return nil
}

// ---- translator ----

// keyTranslator renders "key" or "key[args]" so tests can match on keys.
type keyTranslator struct{}

func (keyTranslator) T(key string, args ...interface{}) string {
	if len(args) == 0 {
		return key
	}
	return fmt.Sprintf("%s%v", key, args)
}

// ---- flows & geocoder ----

type memFlowStore struct {
	flows   map[string]*model.Flow
	fields  map[string][]model.Field
	entries map[string][]model.Entry
}

func newMemFlowStore() *memFlowStore {
	return &memFlowStore{
		flows:   make(map[string]*model.Flow),
		fields:  make(map[string][]model.Field),
		entries: make(map[string][]model.Entry),
	}
}

func (m *memFlowStore) GetFlowBySlug(ctx context.Context, slug string) (*model.Flow, error) {
	f, ok := m.flows[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (m *memFlowStore) CreateFlow(ctx context.Context, f model.Flow) (*model.Flow, error) {
	f.ID = "flow-" + f.Slug
	m.flows[f.Slug] = &f
	return &f, nil
}

func (m *memFlowStore) CreateField(ctx context.Context, flowID string, f model.Field) (*model.Field, error) {
	f.ID = flowID + "-" + f.Slug
	m.fields[flowID] = append(m.fields[flowID], f)
	return &f, nil
}

func (m *memFlowStore) ListEntries(ctx context.Context, flowSlug string) ([]model.Entry, error) {
	return m.entries[flowSlug], nil
}

func (m *memFlowStore) GetEntry(ctx context.Context, flowSlug, entryID string) (*model.Entry, error) {
	for _, e := range m.entries[flowSlug] {
		if e.ID == entryID {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memFlowStore) CreateEntry(ctx context.Context, flowSlug string, e model.Entry) (*model.Entry, error) {
	e.ID = "entry-" + strconv.Itoa(len(m.entries[flowSlug])+1)
	m.entries[flowSlug] = append(m.entries[flowSlug], e)
	return &e, nil
}

func (m *memFlowStore) UpdateEntry(ctx context.Context, flowSlug string, e model.Entry) (*model.Entry, error) {
	for i, cur := range m.entries[flowSlug] {
		if cur.ID == e.ID {
			m.entries[flowSlug][i] = e
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memFlowStore) DeleteEntry(ctx context.Context, flowSlug, entryID string) error {
	return nil
}

type fakeGeocoder struct {
	known map[string]model.Coordinates
	calls []string
}

func (g *fakeGeocoder) FetchCoordinates(ctx context.Context, address string) (model.Coordinates, bool, error) {
	g.calls = append(g.calls, address)
	c, ok := g.known[address]
	return c, ok, nil
}

func (g *fakeGeocoder) Distance(from, to *model.Coordinates) (float64, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	return math.Hypot(from.Lat-to.Lat, from.Lon-to.Lon), true
}
