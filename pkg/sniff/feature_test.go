package sniff

import (
	"sync"
	"testing"
)

// Message that records attach and detach calls
type testMessage struct {
	lock       sync.Mutex
	sniffer    Sniffer
	sampleSize int
	attaches   int
	detaches   int
}

func (m *testMessage) AttachSniffer(s Sniffer, sampleSize int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.sniffer = s
	m.sampleSize = sampleSize
	m.attaches++
}

func (m *testMessage) DetachSniffer() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.sniffer = nil
	m.sampleSize = 0
	m.detaches++
}

func TestFeature(t *testing.T) {
	s := New(nil)

	t.Run("enqueue and dequeue", func(t *testing.T) {
		f := NewFeature(s, nil)
		msg := &testMessage{}

		size := f.OnEnqueue(msg)
		if size != SampleSize {
			t.Errorf("OnEnqueue() got=%d, want=%d", size, SampleSize)
		}
		if msg.sniffer != Sniffer(s) {
			t.Errorf("OnEnqueue() did not attach the sniffer")
		}
		if msg.sampleSize != SampleSize {
			t.Errorf("message got sampleSize=%d, want=%d", msg.sampleSize, SampleSize)
		}
		if f.Refs() != 1 {
			t.Errorf("Refs() got=%d, want=1", f.Refs())
		}

		f.OnDequeue(msg)
		if msg.sniffer != nil {
			t.Errorf("OnDequeue() did not detach the sniffer")
		}
		if f.Refs() != 0 {
			t.Errorf("Refs() got=%d, want=0", f.Refs())
		}
	})

	t.Run("enqueue twice takes one reference", func(t *testing.T) {
		f := NewFeature(s, nil)
		msg := &testMessage{}

		f.OnEnqueue(msg)
		f.OnEnqueue(msg)
		if f.Refs() != 1 {
			t.Errorf("Refs() got=%d, want=1", f.Refs())
		}
		if msg.attaches != 1 {
			t.Errorf("message got attaches=%d, want=1", msg.attaches)
		}

		f.OnDequeue(msg)
		if f.Refs() != 0 {
			t.Errorf("Refs() got=%d, want=0", f.Refs())
		}
	})

	t.Run("dequeue is released exactly once", func(t *testing.T) {
		f := NewFeature(s, nil)
		msg := &testMessage{}

		f.OnEnqueue(msg)
		f.OnDequeue(msg)
		f.OnDequeue(msg)
		if msg.detaches != 1 {
			t.Errorf("message got detaches=%d, want=1", msg.detaches)
		}
		if f.Refs() != 0 {
			t.Errorf("Refs() got=%d, want=0", f.Refs())
		}
	})

	t.Run("dequeue of a message never enqueued", func(t *testing.T) {
		f := NewFeature(s, nil)
		other := &testMessage{}
		f.OnEnqueue(&testMessage{})

		f.OnDequeue(other)
		if other.detaches != 0 {
			t.Errorf("message got detaches=%d, want=0", other.detaches)
		}
		if f.Refs() != 1 {
			t.Errorf("Refs() got=%d, want=1", f.Refs())
		}
	})

	t.Run("lease", func(t *testing.T) {
		f := NewFeature(s, nil)
		msg := &testMessage{}

		lease := f.Acquire(msg)
		if lease.SampleSize != SampleSize {
			t.Errorf("lease got SampleSize=%d, want=%d", lease.SampleSize, SampleSize)
		}
		if f.Refs() != 1 {
			t.Errorf("Refs() got=%d, want=1", f.Refs())
		}

		lease.Release()
		lease.Release()
		if msg.detaches != 1 {
			t.Errorf("message got detaches=%d, want=1", msg.detaches)
		}
		if f.Refs() != 0 {
			t.Errorf("Refs() got=%d, want=0", f.Refs())
		}
	})

	t.Run("shared sniffer", func(t *testing.T) {
		f := NewFeature(s, nil)
		if f.Sniffer() != Sniffer(s) {
			t.Errorf("Sniffer() did not return the shared sniffer")
		}
	})
}

func TestFeatureConcurrent(t *testing.T) {
	f := NewFeature(New(nil), nil)
	msgs := make([]*testMessage, 64)
	for i := range msgs {
		msgs[i] = &testMessage{}
	}

	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		go func(msg *testMessage) {
			defer wg.Done()
			lease := f.Acquire(msg)
			defer lease.Release()

			// Release from multiple exit paths
			var inner sync.WaitGroup
			for i := 0; i < 4; i++ {
				inner.Add(1)
				go func() {
					defer inner.Done()
					lease.Release()
				}()
			}
			inner.Wait()
		}(msg)
	}
	wg.Wait()

	if f.Refs() != 0 {
		t.Errorf("Refs() got=%d, want=0", f.Refs())
	}
	for i, msg := range msgs {
		if msg.attaches != 1 || msg.detaches != 1 {
			t.Errorf("message %d got attaches=%d detaches=%d, want 1 and 1", i, msg.attaches, msg.detaches)
		}
	}
}
