package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"remote-admin-backend/internal/connection"
	"remote-admin-backend/internal/model"
	"remote-admin-backend/internal/pkg/logger"
	"remote-admin-backend/internal/registry"
	"remote-admin-backend/internal/security"
	"remote-admin-backend/pkg/utils"
)

// Executor runs commands against connected servers. Checks are fixed and
// short-circuiting: policy, then connectivity, then dispatch. Transport
// failures come back inside the result, never as a raised error.
type Executor struct {
	connections *connection.Manager
	registry    *registry.Registry
	security    *security.Manager
	logger      *logger.Logger
	sem         *semaphore.Weighted
}

// NewExecutor builds an executor whose bulk fan-out is capped at
// maxConcurrent in-flight dispatches.
func NewExecutor(conns *connection.Manager, reg *registry.Registry, sec *security.Manager, maxConcurrent int, log *logger.Logger) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Executor{
		connections: conns,
		registry:    reg,
		security:    sec,
		logger:      log,
		sem:         semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// ExecuteCommand runs one command against one server.
func (e *Executor) ExecuteCommand(ctx context.Context, serverName, command string, params map[string]any) model.CommandResult {
	if !e.security.IsCommandAllowed(serverName, command) {
		return failedResult(serverName, command, 0, utils.NewPolicyDeniedError(serverName, command))
	}

	if !e.connections.IsConnected(serverName) {
		return failedResult(serverName, command, 0, utils.NewNotConnectedError(serverName))
	}

	server, ok := e.registry.Get(serverName)
	if !ok {
		// Connected but unregistered means the caller wired the layers
		// inconsistently; surface it as a failed result, not a panic.
		return failedResult(serverName, command, 0,
			utils.NewTransportError(serverName, fmt.Errorf("server %s connected but missing from registry", serverName)))
	}

	transport, ok := e.connections.Transport(serverName)
	if !ok {
		return failedResult(serverName, command, 0, utils.NewNotConnectedError(serverName))
	}

	callCtx := ctx
	if server.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(server.Timeout)*time.Second)
		defer cancel()
	}

	e.logger.CommandDispatch(serverName, command)
	start := time.Now()
	result, err := transport.Invoke(callCtx, command, params)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		e.logger.CommandFailed(serverName, command, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return failedResult(serverName, command, elapsed, utils.NewTimeoutError(serverName, err))
		}
		return failedResult(serverName, command, elapsed, utils.NewTransportError(serverName, err))
	}

	return model.CommandResult{
		ServerName:    serverName,
		Command:       command,
		Success:       true,
		Result:        result,
		ExecutionTime: elapsed,
	}
}

// ExecuteBulkCommand fans the command out to every named server
// concurrently and waits for the whole set. Every target gets exactly one
// entry in the result map, reachable or not.
func (e *Executor) ExecuteBulkCommand(ctx context.Context, serverNames []string, command string, params map[string]any) model.BulkCommandResult {
	results := make(map[string]model.CommandResult, len(serverNames))
	successCount := 0
	failedCount := 0
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range serverNames {
		wg.Add(1)
		go func(serverName string) {
			defer wg.Done()

			var result model.CommandResult
			if err := e.sem.Acquire(ctx, 1); err != nil {
				result = failedResult(serverName, command, 0, utils.NewTransportError(serverName, err))
			} else {
				result = e.ExecuteCommand(ctx, serverName, command, params)
				e.sem.Release(1)
			}

			resultsMu.Lock()
			results[serverName] = result
			if result.Success {
				successCount++
			} else {
				failedCount++
			}
			resultsMu.Unlock()
		}(name)
	}
	wg.Wait()

	return model.BulkCommandResult{
		Command:       command,
		TargetServers: serverNames,
		Results:       results,
		SuccessCount:  successCount,
		FailedCount:   failedCount,
	}
}

func failedResult(serverName, command string, elapsed float64, err error) model.CommandResult {
	return model.CommandResult{
		ServerName:    serverName,
		Command:       command,
		Success:       false,
		Result:        map[string]any{},
		ExecutionTime: elapsed,
		Error:         err.Error(),
	}
}
