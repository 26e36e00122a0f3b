package worker

import (
	"sync"

	"github.com/nimasrn/loyalty-engine/pkg/logger"
)

type WorkerHandler = func(workerIndex int, job interface{})

// WorkerManager distributes jobs published on its channel across a fixed pool
// of goroutines. The job channel is never closed by the manager because it may
// be shared with other producers, call Exit to stop the pool.
type WorkerManager struct {
	bufferSize     int
	jobChannel     chan interface{}
	numberOfWorker int
	quit           chan struct{}
	do             WorkerHandler
	waiter         *sync.WaitGroup
}

func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	return &WorkerManager{
		bufferSize:     bufferSize,
		numberOfWorker: numberOfWorkers,
		jobChannel:     jobChannel,
		quit:           make(chan struct{}),
		waiter:         &sync.WaitGroup{},
	}
}

func (m *WorkerManager) Start(handler WorkerHandler) {
	m.do = handler
	for i := 0; i < m.numberOfWorker; i++ {
		m.waiter.Add(1)
		go m.run(i)
	}
	logger.Debug("[worker] pool started", "workers", m.numberOfWorker)
}

func (m *WorkerManager) run(index int) {
	defer m.waiter.Done()
	for {
		select {
		case <-m.quit:
			return
		case job, ok := <-m.jobChannel:
			if !ok {
				return
			}
			m.do(index, job)
		}
	}
}

func (m *WorkerManager) Publish(job interface{}) {
	m.jobChannel <- job
}

// Exit signals the pool to stop and blocks until all workers return.
func (m *WorkerManager) Exit() {
	close(m.quit)
	m.waiter.Wait()
}
