package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/smartseats/core"
)

// Open connects to the configured MongoDB deployment and pings it until
// it is reachable or the connect timeout elapses.
func Open(conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}

	var pingErr error
	for attempts := 1; ; attempts++ {
		if pingErr = client.Ping(ctx, readpref.Primary()); pingErr == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(pingErr, "database never ready")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	return client.Database(conf.Database.Name), nil
}
