// Package nvim talks to a Neovim instance over msgpack-RPC. Client is the
// editor behind the buffer manager.
package nvim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/neovim/go-client/nvim"
	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/files"
)

// ErrNoInstance is returned when no address is known and starting a
// headless instance is not allowed.
var ErrNoInstance = errors.New("no Neovim instance to connect to")

// Options selects the Neovim instance.
type Options struct {
	// Address of a running instance. Tried first.
	Address string
	// StartHeadless spawns `nvim --headless` when Address is empty or
	// unreachable.
	StartHeadless bool
	Logger        *zap.Logger
}

// Client handles the connection and interaction with a Neovim instance.
type Client struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
	log           *zap.Logger
}

// Connect connects to an existing instance or starts a new headless one.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Address != "" {
		v, err := nvim.Dial(opts.Address, nvim.DialContext(ctx))
		if err == nil {
			log.Info("connected to nvim", zap.String("address", opts.Address))
			return &Client{nvim: v, log: log}, nil
		}
		if !opts.StartHeadless {
			return nil, fmt.Errorf("failed to connect to nvim at %s: %w", opts.Address, err)
		}
		log.Warn("nvim unreachable, starting headless instance", zap.String("address", opts.Address), zap.Error(err))
	}
	if !opts.StartHeadless {
		return nil, ErrNoInstance
	}
	return startHeadless(ctx, log)
}

func startHeadless(ctx context.Context, log *zap.Logger) (*Client, error) {
	tmpDir, err := os.MkdirTemp("", "itf-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	// Wait for the socket file to appear.
	for i := 0; i < 40; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			cmd.Process.Kill()
			cmd.Wait()
			os.RemoveAll(tmpDir)
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	v, err := nvim.Dial(socketPath, nvim.DialContext(ctx))
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	c := &Client{
		nvim:          v,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
		log:           log,
	}
	c.configureTempInstance()
	log.Info("started headless nvim", zap.String("socket", socketPath))
	return c, nil
}

// configureTempInstance keeps the throwaway instance from leaving swap
// files behind and lets modified buffers stay hidden.
func (c *Client) configureTempInstance() {
	b := c.nvim.NewBatch()
	b.Command("set noswapfile")
	b.Command("set hidden")
	if err := b.Execute(); err != nil {
		c.log.Warn("failed to configure headless nvim", zap.Error(err))
	}
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (c *Client) Close() error {
	var err error
	if c.nvim != nil {
		err = c.nvim.Close()
	}
	if c.isSelfStarted && c.cmd != nil && c.cmd.Process != nil {
		if kerr := c.cmd.Process.Kill(); kerr == nil {
			c.cmd.Wait()
			os.RemoveAll(filepath.Dir(c.socketPath))
		}
	}
	return err
}

// call runs fn unless ctx is already done, and stops waiting for it once
// ctx is cancelled. The RPC itself cannot be interrupted.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cwd returns the editor's working directory.
func (c *Client) Cwd(ctx context.Context) (string, error) {
	return call(ctx, func() (string, error) {
		var cwd string
		if err := c.nvim.Call("getcwd", &cwd); err != nil {
			return "", fmt.Errorf("getcwd: %w", err)
		}
		return cwd, nil
	})
}

// findBuffer returns the loaded buffer whose name is path.
func (c *Client) findBuffer(path files.AbsFilePath) (nvim.Buffer, bool, error) {
	bufs, err := c.nvim.Buffers()
	if err != nil {
		return 0, false, fmt.Errorf("list buffers: %w", err)
	}

	b := c.nvim.NewBatch()
	names := make([]string, len(bufs))
	loaded := make([]bool, len(bufs))
	for i, buf := range bufs {
		b.BufferName(buf, &names[i])
		b.IsBufferLoaded(buf, &loaded[i])
	}
	if err := b.Execute(); err != nil {
		return 0, false, fmt.Errorf("inspect buffers: %w", err)
	}

	for i, buf := range bufs {
		if !loaded[i] || names[i] == "" {
			continue
		}
		if filepath.Clean(names[i]) == string(path) {
			return buf, true, nil
		}
	}
	return 0, false, nil
}

// BufferLines returns the lines of the loaded buffer holding path.
func (c *Client) BufferLines(ctx context.Context, path files.AbsFilePath) ([]string, bool, error) {
	type lines struct {
		lines []string
		open  bool
	}
	r, err := call(ctx, func() (lines, error) {
		buf, ok, err := c.findBuffer(path)
		if err != nil || !ok {
			return lines{}, err
		}
		raw, err := c.nvim.BufferLines(buf, 0, -1, true)
		if err != nil {
			return lines{}, fmt.Errorf("read buffer %s: %w", path, err)
		}
		out := make([]string, len(raw))
		for i, l := range raw {
			out[i] = string(l)
		}
		return lines{lines: out, open: true}, nil
	})
	return r.lines, r.open, err
}

// SetBufferLines replaces the whole buffer holding path. The buffer is left
// modified; saving is up to the user.
func (c *Client) SetBufferLines(ctx context.Context, path files.AbsFilePath, content []string) error {
	_, err := call(ctx, func() (struct{}, error) {
		buf, ok, err := c.findBuffer(path)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, fmt.Errorf("no buffer for %s", path)
		}
		byteContent := make([][]byte, len(content))
		for i, s := range content {
			byteContent[i] = []byte(s)
		}
		if err := c.nvim.SetBufferLines(buf, 0, -1, true, byteContent); err != nil {
			return struct{}{}, fmt.Errorf("set buffer %s: %w", path, err)
		}
		return struct{}{}, nil
	})
	return err
}

// Edit opens path in a buffer, as :edit does.
func (c *Client) Edit(ctx context.Context, path files.AbsFilePath) error {
	_, err := call(ctx, func() (struct{}, error) {
		var escaped string
		if err := c.nvim.Call("fnameescape", &escaped, string(path)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.nvim.Command("edit " + escaped)
	})
	return err
}

// Chdir changes the editor's working directory.
func (c *Client) Chdir(ctx context.Context, dir string) error {
	_, err := call(ctx, func() (struct{}, error) {
		var escaped string
		if err := c.nvim.Call("fnameescape", &escaped, dir); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.nvim.Command("cd " + escaped)
	})
	return err
}
