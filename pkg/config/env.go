package config

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvRedisURL      = "REDIS_URL"
	EnvMongoURI      = "MONGO_URI"
	EnvNeo4jURI      = "NEO4J_URI"
	EnvNeo4jUser     = "NEO4J_USER"
	EnvNeo4jPassword = "NEO4J_PASSWORD"
	EnvNeo4jDatabase = "NEO4J_DATABASE"
)

// Env holds connection settings for the cache and persistence backends.
// Empty fields mean the backend is not configured.
type Env struct {
	RedisURL      string
	MongoURI      string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
}

// LoadEnv loads the given .env files (".env" when none are given) into the
// process environment and reads Env from it. Missing files are skipped;
// variables already set in the environment win over the files.
func LoadEnv(files ...string) (Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return Env{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return EnvFromOS(), nil
}

// EnvFromOS reads Env from the process environment only.
func EnvFromOS() Env {
	return Env{
		RedisURL:      os.Getenv(EnvRedisURL),
		MongoURI:      os.Getenv(EnvMongoURI),
		Neo4jURI:      os.Getenv(EnvNeo4jURI),
		Neo4jUser:     os.Getenv(EnvNeo4jUser),
		Neo4jPassword: os.Getenv(EnvNeo4jPassword),
		Neo4jDatabase: os.Getenv(EnvNeo4jDatabase),
	}
}

// ReadEnvFile parses a .env file without touching the process environment.
func ReadEnvFile(path string) (Env, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return Env{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Env{
		RedisURL:      m[EnvRedisURL],
		MongoURI:      m[EnvMongoURI],
		Neo4jURI:      m[EnvNeo4jURI],
		Neo4jUser:     m[EnvNeo4jUser],
		Neo4jPassword: m[EnvNeo4jPassword],
		Neo4jDatabase: m[EnvNeo4jDatabase],
	}, nil
}

func isNotExist(err error) bool {
	pe, ok := err.(*fs.PathError)
	return ok && os.IsNotExist(pe)
}
