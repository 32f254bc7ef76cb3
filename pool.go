/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

// Pool is a named, ordered, mutable collection of test objects.  It is
// used both as a source of random arguments and as the deposit for newly
// produced objects.  Duplicates and insertion order are both meaningful:
// objects are fetched by uniform-random index, not identity.
//
// The set of pools is fixed at engine construction; one pool exists for
// every name some producing action declares.  Pools may be pre-seeded
// through Add before Run, and inspected at any point between steps.
type Pool struct {
	name    string
	objects []interface{}
}

func newPool(name string) *Pool {
	return &Pool{name: name}
}

// Name returns the pool's name.
func (p *Pool) Name() string {
	return p.name
}

// Len returns the number of objects currently in the pool.
func (p *Pool) Len() int {
	return len(p.objects)
}

// Get returns the object at index i.
func (p *Pool) Get(i int) interface{} {
	return p.objects[i]
}

// Set replaces the object at index i.
func (p *Pool) Set(i int, obj interface{}) {
	p.objects[i] = obj
}

// Add appends an object to the pool.
func (p *Pool) Add(obj interface{}) {
	p.objects = append(p.objects, obj)
}

// Remove deletes the object at index i, preserving the order of the
// remaining objects.
func (p *Pool) Remove(i int) interface{} {
	obj := p.objects[i]
	p.objects = append(p.objects[:i], p.objects[i+1:]...)
	return obj
}

// Objects returns a copy of the pool's current contents.
func (p *Pool) Objects() []interface{} {
	objects := make([]interface{}, len(p.objects))
	copy(objects, p.objects)
	return objects
}
