// Command reconciler is the Lambda entrypoint for the DynamoDB Streams
// edge-reconciliation handler.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/canopysites/canopy/store"
	"github.com/canopysites/canopy/stream"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("aws config")
	}

	cfg := store.DefaultConfig()
	if table := os.Getenv("CANOPY_TABLE"); table != "" {
		cfg.Table = table
	}
	st := store.New(dynamodb.NewFromConfig(awsCfg), cfg)

	lambda.Start(stream.NewHandler(st).HandleEdgeCleanup)
}
