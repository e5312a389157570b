package storage

import (
	"context"
	"io"
)

// PutInput decrit une piece justificative de souscription a archiver
// (CNI, titre foncier, photo de parcelle).
type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

// PutResult: cle interne et URL servie au back office.
type PutResult struct {
	Key string
	URL string
}

// Storage archive les pieces justificatives. S3 en production, disque
// local en dev; la cle retournee est ce que la souscription persiste.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}
