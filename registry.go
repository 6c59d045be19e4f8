package fspath

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jmgilman/go/fspath/errors"
)

// Registry maps schemes to devices. Local paths always resolve to the local
// device; device paths resolve to the device registered for their scheme.
//
// Devices are normally registered once at startup. Lookups may run
// concurrently with registration.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]Device
	local   Device
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLocalDevice replaces the device serving local paths.
func WithLocalDevice(d Device) RegistryOption {
	return func(r *Registry) {
		r.local = d
	}
}

// NewRegistry returns a registry holding only the local device.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		devices: make(map[string]Device),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.local == nil {
		r.local = NewLocalDevice()
	}
	return r
}

// Register adds d under d.Scheme(). The scheme must be non-empty, free of
// '/' and not yet registered.
func (r *Registry) Register(d Device) error {
	scheme := d.Scheme()
	if scheme == "" || strings.Contains(scheme, "/") {
		return errors.Newf(errors.CodeInvalidInput, "invalid device scheme %q", scheme)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[scheme]; ok {
		return errors.Newf(errors.CodeAlreadyExists, "device for scheme %q already registered", scheme)
	}
	r.devices[scheme] = d
	r.logger.Debug("registered device", "scheme", scheme)
	return nil
}

// Unregister removes the device for scheme and returns it.
func (r *Registry) Unregister(scheme string) (Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[scheme]
	delete(r.devices, scheme)
	return d, ok
}

// Lookup returns the device registered for scheme.
func (r *Registry) Lookup(scheme string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[scheme]
	return d, ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemes := make([]string, 0, len(r.devices))
	for s := range r.devices {
		schemes = append(schemes, s)
	}
	slices.Sort(schemes)
	return schemes
}

// Local returns the device serving local paths.
func (r *Registry) Local() Device {
	return r.local
}

// DeviceFor returns the device p dispatches to. A device path whose scheme
// is not registered gets a stand-in that fails every operation with
// ErrNoDevice.
func (r *Registry) DeviceFor(p FilePath) Device {
	if p.IsLocal() {
		return r.local
	}
	if d, ok := r.Lookup(p.scheme); ok {
		return d
	}
	r.logger.Error("no device registered for scheme", "scheme", p.scheme, "path", p.String())
	if debugAssertions {
		panic("fspath: no device registered for scheme " + p.scheme)
	}
	return missingDevice{
		UnsupportedDevice: UnsupportedDevice{Err: errors.WithContext(ErrNoDevice, "scheme", p.scheme)},
		scheme:            p.scheme,
	}
}

// Close closes every registered device implementing io.Closer and empties
// the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	devices := r.devices
	r.devices = make(map[string]Device)
	r.mu.Unlock()

	var errs []error
	for scheme, d := range devices {
		if c, ok := d.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, errors.Wrapf(err, errors.CodeIO, "closing device %q", scheme))
			}
		}
	}
	return stderrors.Join(errs...)
}

// displayName renders device paths in the device's own form, so a path on
// a Windows device shows backslashes whatever the host OS.
func (r *Registry) displayName(p FilePath, args ...string) string {
	var b strings.Builder
	if p.NeedsDevice() {
		b.WriteString(r.DeviceFor(p).MapToDevicePath(p))
	} else {
		b.WriteString(p.NativePath())
	}
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	if p.NeedsDevice() {
		b.WriteString(" on ")
		b.WriteString(r.DeviceFor(p).DisplayName(p))
	}
	return b.String()
}

type missingDevice struct {
	UnsupportedDevice
	scheme string
}

func (m missingDevice) Scheme() string { return m.scheme }

var defaultRegistry atomic.Pointer[Registry]

// Default returns the process-wide registry. Before Init it holds only the
// local device.
func Default() *Registry {
	if r := defaultRegistry.Load(); r != nil {
		return r
	}
	defaultRegistry.CompareAndSwap(nil, NewRegistry())
	return defaultRegistry.Load()
}

// SetDefault replaces the process-wide registry and returns the previous one.
func SetDefault(r *Registry) *Registry {
	prev := Default()
	defaultRegistry.Store(r)
	return prev
}

// Init registers devices with the process-wide registry. It is meant to be
// called once at startup, before paths are used from other goroutines.
func Init(devices ...Device) error {
	r := Default()
	for _, d := range devices {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown closes the devices of the process-wide registry and replaces it
// with a fresh local-only registry.
func Shutdown() error {
	prev := SetDefault(NewRegistry())
	return prev.Close()
}

type registryKey struct{}

// WithRegistry returns a context whose path operations dispatch through r
// instead of the process-wide registry.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFrom returns the registry carried by ctx, or Default.
func RegistryFrom(ctx context.Context) *Registry {
	if ctx != nil {
		if r, ok := ctx.Value(registryKey{}).(*Registry); ok && r != nil {
			return r
		}
	}
	return Default()
}
