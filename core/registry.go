package core

import (
	"context"
	"fmt"
	"sync"
)

// ControllerRegistry dispatches transfer requests to the first registered
// controller that claims them.
type ControllerRegistry struct {
	mu          sync.RWMutex
	controllers []FlowController
}

func NewControllerRegistry(controllers ...FlowController) (*ControllerRegistry, error) {
	registry := &ControllerRegistry{}
	for _, controller := range controllers {
		if err := registry.Register(controller); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *ControllerRegistry) Register(controller FlowController) error {
	if r == nil {
		return fmt.Errorf("core: controller registry is nil")
	}
	if controller == nil {
		return fmt.Errorf("core: flow controller is nil")
	}
	r.mu.Lock()
	r.controllers = append(r.controllers, controller)
	r.mu.Unlock()
	return nil
}

// Dispatch evaluates controllers in registration order. Controllers run
// outside the lock, so a registration racing with a dispatch is either fully
// seen or not seen.
func (r *ControllerRegistry) Dispatch(ctx context.Context, req TransferRequest) (FlowOutcome, error) {
	for _, controller := range r.Controllers() {
		if controller.CanHandle(req) {
			return controller.InitiateFlow(ctx, req), nil
		}
	}
	return FlowOutcome{}, NewNoCapableControllerError(req.ID)
}

func (r *ControllerRegistry) Controllers() []FlowController {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FlowController(nil), r.controllers...)
}

func (r *ControllerRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controllers)
}

type ControllerFunc struct {
	CanHandleFn func(req TransferRequest) bool
	InitiateFn  func(ctx context.Context, req TransferRequest) FlowOutcome
}

func NewControllerFunc(
	canHandle func(req TransferRequest) bool,
	initiate func(ctx context.Context, req TransferRequest) FlowOutcome,
) ControllerFunc {
	return ControllerFunc{CanHandleFn: canHandle, InitiateFn: initiate}
}

func (c ControllerFunc) CanHandle(req TransferRequest) bool {
	if c.CanHandleFn == nil {
		return false
	}
	return c.CanHandleFn(req)
}

func (c ControllerFunc) InitiateFlow(ctx context.Context, req TransferRequest) FlowOutcome {
	if c.InitiateFn == nil {
		return Fatal("core: controller has no initiate function", nil)
	}
	return c.InitiateFn(ctx, req)
}
