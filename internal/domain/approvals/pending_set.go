package approvals

// PendingSet mantiene el orden en que llegaron los ítems.
// No es seguro para uso concurrente; el Controller lo protege.
type PendingSet struct {
	order []string
	items map[string]PendingApproval
}

func NewPendingSet() *PendingSet {
	return &PendingSet{items: map[string]PendingApproval{}}
}

// Replace reemplaza el contenido completo (resultado de un fetch).
// Duplicados por id: gana el primero.
func (s *PendingSet) Replace(items []PendingApproval) {
	s.order = s.order[:0]
	s.items = make(map[string]PendingApproval, len(items))
	for _, it := range items {
		s.Insert(it)
	}
}

// Insert agrega al final. Si ya existe, no cambia nada.
func (s *PendingSet) Insert(it PendingApproval) bool {
	if it.ID == "" {
		return false
	}
	if _, ok := s.items[it.ID]; ok {
		return false
	}
	s.items[it.ID] = it
	s.order = append(s.order, it.ID)
	return true
}

func (s *PendingSet) Remove(id string) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *PendingSet) Get(id string) (PendingApproval, bool) {
	it, ok := s.items[id]
	return it, ok
}

func (s *PendingSet) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

func (s *PendingSet) Len() int { return len(s.order) }

// List devuelve una copia en orden de llegada.
func (s *PendingSet) List() []PendingApproval {
	out := make([]PendingApproval, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}
