package mysql

// Repository aggregates all MySQL repositories
type Repository struct {
	ds *Datastore

	Equipment *EquipmentRepository
	Event     *EventRepository
	Result    *ResultRepository
	Shift     *ShiftRepository
	Anomaly   *AnomalyRepository
}

// NewRepository creates a new MySQL repository with all sub-repositories
func NewRepository(dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}

	return &Repository{
		ds:        ds,
		Equipment: NewEquipmentRepository(ds),
		Event:     NewEventRepository(ds),
		Result:    NewResultRepository(ds),
		Shift:     NewShiftRepository(ds),
		Anomaly:   NewAnomalyRepository(ds),
	}, nil
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
