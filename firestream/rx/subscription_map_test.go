package rx

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestSubscriptionMapUnsubscribeByKey(t *testing.T) {
	subject := NewSubject[int]()
	sm := NewSubscriptionMap()

	aValues := []int{}
	bValues := []int{}
	sm.Put("a", subject.Observable().Subscribe(func(value int) {
		aValues = append(aValues, value)
	}))
	sm.Put("b", subject.Observable().Subscribe(func(value int) {
		bValues = append(bValues, value)
	}))

	subject.Next(1)
	sm.Unsubscribe("a")
	subject.Next(2)

	assert.Equal(t, []int{1}, aValues)
	assert.Equal(t, []int{1, 2}, bValues)
}

func TestSubscriptionMapUnsubscribeAll(t *testing.T) {
	subject := NewSubject[int]()
	sm := NewSubscriptionMap()

	count := 0
	sm.Add(subject.Observable().Subscribe(func(value int) {
		count += 1
	}))
	sm.Put("k", subject.Observable().Subscribe(func(value int) {
		count += 1
	}))

	subject.Next(1)
	assert.Equal(t, 2, count)

	sm.UnsubscribeAll()
	subject.Next(2)
	assert.Equal(t, 2, count)

	// the map is reusable after a teardown
	sm.Add(subject.Observable().Subscribe(func(value int) {
		count += 1
	}))
	subject.Next(3)
	assert.Equal(t, 3, count)
}
