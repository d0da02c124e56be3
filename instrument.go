package iconv

import (
	"errors"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics holds the collectors updated by an instrumented primitive.
type Metrics struct {
	// Opened counts Open calls by result ("ok" or "unsupported").
	Opened *prometheus.CounterVec

	// Closed counts released descriptors.
	Closed prometheus.Counter

	// Live tracks descriptors opened and not yet closed.
	Live prometheus.Gauge

	// Calls counts descriptor calls by op ("convert", "count" or "reset")
	// and result ("ok", "eilseq", "einval", "e2big" or "error").
	Calls *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Opened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconv_descriptors_opened_total",
				Help: "Conversion descriptors opened",
			},
			[]string{"result"},
		),
		Closed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "iconv_descriptors_closed_total",
				Help: "Conversion descriptors closed",
			},
		),
		Live: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "iconv_descriptors_open",
				Help: "Conversion descriptors currently open",
			},
		),
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iconv_calls_total",
				Help: "Conversion calls",
			},
			[]string{"op", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Opened, m.Closed, m.Live, m.Calls)
	}
	return m
}

// Instrument wraps p so that every descriptor it opens updates m and logs
// failures to Logger at debug level.
func Instrument(p Primitive, m *Metrics) Primitive {
	return &instrumented{p: p, m: m}
}

type instrumented struct {
	p Primitive
	m *Metrics
}

func (i *instrumented) Open(tocode, fromcode string) (Descriptor, error) {
	d, err := i.p.Open(tocode, fromcode)
	if err != nil {
		i.m.Opened.WithLabelValues("unsupported").Inc()
		Logger().Debug("open failed",
			zap.String("from", fromcode),
			zap.String("to", tocode),
			zap.Error(err),
		)
		return nil, err
	}
	i.m.Opened.WithLabelValues("ok").Inc()
	i.m.Live.Inc()
	return &instrumentedDescriptor{d: d, m: i.m, from: fromcode, to: tocode}, nil
}

type instrumentedDescriptor struct {
	d        Descriptor
	m        *Metrics
	from, to string
}

func (d *instrumentedDescriptor) Iconv(in, out []byte, outLen int) (int, int, error) {
	op := "convert"
	switch {
	case in == nil:
		op = "reset"
	case out == nil:
		op = "count"
	}

	inLeft, outLeft, err := d.d.Iconv(in, out, outLen)
	d.m.Calls.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		Logger().Debug("conversion stopped",
			zap.String("op", op),
			zap.String("from", d.from),
			zap.String("to", d.to),
			zap.Int("in_left", inLeft),
			zap.Int("out_left", outLeft),
			zap.Error(err),
		)
	}
	return inLeft, outLeft, err
}

func (d *instrumentedDescriptor) Close() error {
	err := d.d.Close()
	d.m.Closed.Inc()
	d.m.Live.Dec()
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, syscall.EILSEQ):
		return "eilseq"
	case errors.Is(err, syscall.EINVAL):
		return "einval"
	case errors.Is(err, syscall.E2BIG):
		return "e2big"
	}
	return "error"
}
