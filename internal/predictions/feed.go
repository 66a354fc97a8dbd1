package predictions

import "sync"

// Feed republica o snapshot agregado de todas as apostas a cada mutação.
// Cada assinante recebe sempre o valor mais recente: canais com buffer 1,
// drenados antes de cada envio, então assinantes lentos nunca bloqueiam o store.
type Feed struct {
	mu   sync.RWMutex
	subs map[chan []Prediction]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan []Prediction]struct{})}
}

// Subscribe registra um assinante e devolve a função de cancelamento
func (f *Feed) Subscribe() (<-chan []Prediction, func()) {
	ch := make(chan []Prediction, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
	return ch, cancel
}

// publish entrega o snapshot para todos os assinantes, substituindo
// qualquer valor ainda não consumido
func (f *Feed) publish(snapshot []Prediction) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
