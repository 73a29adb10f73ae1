package graphql

import (
	lru "github.com/hashicorp/golang-lru"
)

const DefaultDescriptorCacheSize = 128

// DescriptorCache memoizes parsed operation descriptors per document and operation name.
type DescriptorCache struct {
	cache *lru.Cache
}

func NewDescriptorCache(size int) (*DescriptorCache, error) {
	if size <= 0 {
		size = DefaultDescriptorCacheSize
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &DescriptorCache{cache: cache}, nil
}

func (d *DescriptorCache) Descriptor(request *Request) (OperationDescriptor, error) {
	if request.IsEmpty() {
		return OperationDescriptor{}, ErrEmptyRequest
	}

	key := descriptorCacheKey{query: request.Query, operationName: request.OperationName}
	if cached, ok := d.cache.Get(key); ok {
		return cached.(OperationDescriptor), nil
	}

	descriptor, err := ParseOperationDescriptor(request)
	if err != nil {
		return OperationDescriptor{}, err
	}

	d.cache.Add(key, descriptor)
	return descriptor, nil
}

func (d *DescriptorCache) Len() int {
	return d.cache.Len()
}

type descriptorCacheKey struct {
	query         string
	operationName string
}
