package mongo

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout    = 10 * time.Second
	pingTimeout       = 5 * time.Second
	disconnectTimeout = 10 * time.Second
)

// ConnectDB connects to MongoDB and verifies the deployment is reachable
// before handing the client out. All repositories share the returned client.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect alone does not touch the server; the ping does.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), pingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer disconnectCancel()
		if disconnectErr := client.Disconnect(disconnectCtx); disconnectErr != nil {
			log.WithField("op", "mongo.connect").WithError(disconnectErr).
				Warn("failed to disconnect after ping failure")
		}
		return nil, err
	}

	log.WithField("op", "mongo.connect").Info("connected to mongodb")
	return client, nil
}

// DisconnectDB closes the shared client during shutdown.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}
