// Package utils предоставляет вспомогательные функции для graceful shutdown.
//
// При SIGINT (Ctrl+C) или SIGTERM контекст отменяется, пайплайн доходит
// до границы текущего файла и завершается. Кэш при этом остаётся в
// согласованном частичном состоянии и подхватывается следующим запуском.
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown устанавливает обработчик сигналов.
//
// Возвращает функцию которую следует вызвать через defer: она снимает
// обработчик и закрывает лог.
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer SetupGracefulShutdown(cancel)()
func SetupGracefulShutdown(cancel context.CancelFunc) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal, stopping after current file", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
		Close()
	}
}

// SetupGracefulShutdownWithContext создаёт контекст и настраивает graceful shutdown.
//
//	ctx, shutdown := SetupGracefulShutdownWithContext(context.Background())
//	defer shutdown()
func SetupGracefulShutdownWithContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	shutdown := SetupGracefulShutdown(cancel)
	return ctx, func() {
		shutdown()
		cancel()
	}
}
