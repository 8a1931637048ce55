package test

import (
	"context"
	"sync"
)

// WidgetStub records overlay calls.
type WidgetStub struct {
	OpenErr error
	// CloseFn runs before Close is counted; it may block.
	CloseFn func(context.Context) error

	mu      sync.Mutex
	Opens   int
	Closes  int
	Removes int
}

func (w *WidgetStub) Open(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Opens++
	return w.OpenErr
}

func (w *WidgetStub) Close(ctx context.Context) error {
	var err error
	if w.CloseFn != nil {
		err = w.CloseFn(ctx)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Closes++
	return err
}

func (w *WidgetStub) RemoveResidue(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Removes++
	return nil
}

// Counts returns open, close and residue removal counts.
func (w *WidgetStub) Counts() (opens, closes, removes int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Opens, w.Closes, w.Removes
}

// WidgetFactoryStub hands out one WidgetStub per order.
type WidgetFactoryStub struct {
	mu      sync.Mutex
	Widgets map[string]*WidgetStub
	OpenErr error
}

// For returns the widget stub for order, creating it on first use.
func (f *WidgetFactoryStub) For(orderID string) *WidgetStub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Widgets == nil {
		f.Widgets = make(map[string]*WidgetStub)
	}
	w, ok := f.Widgets[orderID]
	if !ok {
		w = &WidgetStub{OpenErr: f.OpenErr}
		f.Widgets[orderID] = w
	}
	return w
}

// Created reports how many widgets were handed out.
func (f *WidgetFactoryStub) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Widgets)
}
