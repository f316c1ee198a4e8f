package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 60 * time.Second
	shutdownTimeout     = 30 * time.Second

	gracefulEnvKey = "IS_GRACEFUL"
	// Child processes inherit the listening socket as fd 3, after
	// stdin/stdout/stderr.
	gracefulListenerFd = 3
)

// graceServer wraps http.Server with SIGTERM graceful shutdown and SIGUSR2
// zero-downtime restart: the listener fd is passed to a re-exec'd child, so
// in-flight requests drain on the old process while the new one accepts.
type graceServer struct {
	*http.Server

	listener     net.Listener
	isChild      bool
	signalChan   chan os.Signal
	shutdownChan chan struct{}
}

// GraceServer serves handler on addr until SIGTERM, restarting in place on
// SIGUSR2.
func GraceServer(addr string, handler http.Handler) error {
	srv := &graceServer{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		isChild:      os.Getenv(gracefulEnvKey) != "",
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
	return srv.listenAndServe()
}

func (srv *graceServer) listenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.listen(addr)
	if err != nil {
		return err
	}
	srv.listener = ln

	go srv.handleSignals()
	err = srv.Serve(srv.listener)
	// Serve returns as soon as the listener closes; wait for Shutdown to
	// finish draining before exiting.
	<-srv.shutdownChan
	return err
}

func (srv *graceServer) listen(addr string) (net.Listener, error) {
	if srv.isChild {
		ln, err := net.FileListener(os.NewFile(gracefulListenerFd, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *graceServer) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGTERM:
			Sugar.Info("received SIGTERM, shutting down")
			srv.shutdown()
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, restarting")
			pid, err := srv.forkChild()
			if err != nil {
				Sugar.Errorf("restart failed: %v, continuing to serve", err)
				continue
			}
			Sugar.Infof("child started pid=%d, draining old server", pid)
			srv.shutdown()
		}
	}
}

func (srv *graceServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("shutdown: %v", err)
	} else {
		Sugar.Info("server stopped cleanly")
	}
	close(srv.shutdownChan)
}

// forkChild re-execs the current binary with the listener socket as fd 3 and
// the graceful marker in its environment.
func (srv *graceServer) forkChild() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is %T, not *net.TCPListener", srv.listener)
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}

	marker := gracefulEnvKey + "=1"
	env := []string{marker}
	for _, e := range os.Environ() {
		if e != marker {
			env = append(env, e)
		}
	}

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}
