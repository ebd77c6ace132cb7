package provision

import "sync"

// memo is the process-local provisioning cache: placeholder product IDs per
// source bucket and resolved variant refs per external ID. It only ever
// skips platform round-trips; the SKU lookup stays the source of truth.
type memo struct {
	mu       sync.RWMutex
	products map[string]string
	variants map[string]variantRef
}

type variantRef struct {
	productID string
	variantID string
}

func newMemo() *memo {
	return &memo{
		products: make(map[string]string),
		variants: make(map[string]variantRef),
	}
}

func (m *memo) product(sourceType string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.products[sourceType]
	return id, ok
}

func (m *memo) setProduct(sourceType, id string) {
	m.mu.Lock()
	m.products[sourceType] = id
	m.mu.Unlock()
}

func (m *memo) variant(externalID string) (variantRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.variants[externalID]
	return ref, ok
}

func (m *memo) setVariant(externalID, productID, variantID string) {
	m.mu.Lock()
	m.variants[externalID] = variantRef{productID: productID, variantID: variantID}
	m.mu.Unlock()
}
