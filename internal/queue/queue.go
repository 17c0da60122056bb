package queue

import (
	"log"
	"sync"
)

type Job struct {
	Fn   func() error
	Errc chan error
}

// Manager is a bounded worker pool. HTTP handlers run their work through it
// to cap concurrency, and the event broadcaster uses it so publish calls
// never block the caller that just committed a mutation.
type Manager struct {
	JobQueue   chan Job
	MaxWorkers int
	wg         sync.WaitGroup
}

func NewManager(queueSize int, maxWorkers int) *Manager {
	m := &Manager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	m.startWorkers()
	return m
}

func (m *Manager) startWorkers() {
	for i := 0; i < m.MaxWorkers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for job := range m.JobQueue {
				err := job.Fn()
				if job.Errc != nil {
					job.Errc <- err
				} else if err != nil {
					log.Printf("queue: job failed: %v", err)
				}
			}
		}()
	}
}

func (m *Manager) Enqueue(job Job) {
	m.JobQueue <- job
}

func (m *Manager) Shutdown() {
	close(m.JobQueue)
	m.wg.Wait()
}
