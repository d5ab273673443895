// Command echo is a minimal demo server: it accepts sessions from any
// number of UDP peers and echoes every reliably-ordered message it receives
// back to its sender, exposing Prometheus metrics for each session.
package main

import (
	"flag"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"lanewire/lane"
	"lanewire/logging"
	"lanewire/session"
	"lanewire/stats"
	"lanewire/substrate"
)

const (
	echoLane    = 0
	tickPeriod  = 50 * time.Millisecond
	sampleEvery = 2 * time.Second
)

type peerSession struct {
	id           xid.ID
	sess         *session.Session
	sub          *substrate.UDPSubstrate
	sampler      *stats.Sampler
	lastSampleAt time.Time
}

func main() {
	addr := flag.String("listen", "127.0.0.1:9990", "UDP address to listen on")
	metricsAddr := flag.String("metrics", "127.0.0.1:9991", "HTTP address to serve Prometheus metrics on")
	flag.Parse()

	log := logging.NewDevelopment("echo")

	udpAddr, err := net.ResolveUDPAddr("udp", *addr)
	if err != nil {
		log.Fatalw("resolve listen address", "error", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		log.Fatalw("bind UDP socket", "error", err)
	}
	log.Infow("listening", "addr", conn.LocalAddr().String())

	collector := stats.NewCollector("session_id")
	prometheus.MustRegister(collector)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Infow("serving metrics", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Errorw("metrics server stopped", "error", err)
		}
	}()

	srv := &echoServer{
		conn:      conn,
		log:       log,
		collector: collector,
		peers:     make(map[string]*peerSession),
	}
	srv.run()
}

type echoServer struct {
	conn      *net.UDPConn
	log       *zap.SugaredLogger
	collector *stats.Collector

	mu    sync.Mutex
	peers map[string]*peerSession
}

func (s *echoServer) run() {
	go s.listen()

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	last := time.Now()

	for now := range tickLoop(ticker) {
		dt := now.Sub(last)
		last = now
		s.tick(now, dt)
	}
}

func tickLoop(t *time.Ticker) <-chan time.Time {
	return t.C
}

func (s *echoServer) listen() {
	buf := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			s.log.Errorw("read UDP packet", "error", err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		s.peerFor(addr).sub.Push(data)
	}
}

func (s *echoServer) peerFor(addr *net.UDPAddr) *peerSession {
	key := addr.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[key]; ok {
		return p
	}

	cfg := session.DefaultConfig()
	cfg.SendLanes = []lane.Kind{lane.ReliableOrdered}
	cfg.RecvLanes = []lane.Kind{lane.ReliableOrdered}

	sess, err := session.New(cfg, time.Now(), 64, 1200, s.log.Desugar().Named(key))
	if err != nil {
		s.log.Errorw("create session", "peer", key, "error", err)
	}

	sub := substrate.NewUDPSubstrate(s.conn, addr, 64, 1200, func(reason substrate.DisconnectReason) {
		s.log.Infow("peer disconnected", "peer", key, "reason", reason.Reason)
		s.mu.Lock()
		delete(s.peers, key)
		s.mu.Unlock()
	})

	id := xid.New()
	sampler := stats.NewSampler(sess, 64, cfg.PacketLostThresholdFactor)
	p := &peerSession{id: id, sess: sess, sub: sub, sampler: sampler}
	s.peers[key] = p
	s.collector.Add(id.String(), sampler)
	s.log.Infow("new peer", "peer", key, "session_id", id.String())
	return p
}

func (s *echoServer) tick(now time.Time, dt time.Duration) {
	s.mu.Lock()
	peers := make([]*peerSession, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		p.sess.RefillBytes(dt)

		for {
			b, ok := p.sub.RecvPacket()
			if !ok {
				break
			}
			_, msgs, errs := p.sess.Recv(now, b)
			for _, e := range errs {
				s.log.Debugw("recv error", "session_id", p.id.String(), "error", e)
			}
			for _, m := range msgs {
				_, _ = p.sess.Push(now, echoLane, m.Payload)
			}
		}

		for _, pkt := range p.sess.Flush(now) {
			p.sub.SendPacket(pkt)
		}

		if now.Sub(p.lastSampleAt) >= sampleEvery {
			p.sampler.Take(now, sampleEvery)
			p.lastSampleAt = now
		}

		if reason := p.sess.Disconnected(); reason != nil {
			p.sub.Disconnect(substrate.DisconnectReason{Reason: reason.Error()})
		}
	}
}
