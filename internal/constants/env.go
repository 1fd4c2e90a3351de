// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvOpenAIAPIKey is the environment variable containing the OpenAI API key
	// used for transcription, planning, script generation, and translation.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// EnvBeamBaseURL is the environment variable containing the base URL of the
	// Beam endpoint cluster (image, video, music, and render endpoints).
	EnvBeamBaseURL = "BEAM_BASE_URL"

	// EnvBeamAuthToken is the environment variable containing the bearer token
	// sent to Beam endpoints.
	EnvBeamAuthToken = "BEAM_AUTH_TOKEN"

	// EnvS3Bucket is the environment variable containing the bucket used for
	// durable promotion of rendered videos.
	EnvS3Bucket = "REELFORGE_S3_BUCKET"

	// EnvS3Prefix is the environment variable containing the key prefix inside
	// the promotion bucket.
	EnvS3Prefix = "REELFORGE_S3_PREFIX"

	// EnvServerPort is the environment variable containing the HTTP listen port.
	EnvServerPort = "PORT"
)
