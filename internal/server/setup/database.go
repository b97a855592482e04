// Package setup bootstraps local infrastructure for development: if no
// reachable database is configured it provisions a dockerized PostgreSQL
// and records the connection string in .env.
package setup

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const (
	defaultPostgresUser   = "unilocator"
	defaultPostgresDB     = "unilocator"
	postgresContainerName = "unilocator-postgres"
)

var selectedPostgresPort = "5432"

func postgresPassword() string {
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" {
		return pw
	}
	// Local auto-setup only. Production deployments must set
	// POSTGRES_PASSWORD or a full DATABASE_URL.
	return fmt.Sprintf("unilocator_local_dev_%d", time.Now().Unix()%10000)
}

// EnsureDatabase makes sure a PostgreSQL instance is reachable.
// Order of preference: working DATABASE_URL, then Docker auto-setup.
func EnsureDatabase() error {
	log.Println("Checking database configuration...")

	if url := os.Getenv("DATABASE_URL"); url != "" {
		if databaseReachable(url) {
			log.Println("✓ Database already configured and accessible")
			return nil
		}
		log.Println("DATABASE_URL set but database not accessible, attempting setup...")
	}

	if !dockerInstalled() {
		return fmt.Errorf(`Docker is required for automatic database setup.

Install Docker:
  curl -fsSL https://get.docker.com | sh

Or configure DATABASE_URL in the .env file manually.`)
	}
	log.Println("✓ Docker is installed")

	if postgresContainerRunning() {
		if port, ok := containerHostPort(); ok {
			selectedPostgresPort = port
		}
		log.Printf("✓ PostgreSQL container already running on port %s", selectedPostgresPort)
		return writeDatabaseURL()
	}

	log.Println("Starting PostgreSQL container...")
	if err := startPostgresContainer(); err != nil {
		return fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	log.Println("Waiting for PostgreSQL to be ready...")
	if err := waitForPostgres(); err != nil {
		return fmt.Errorf("PostgreSQL failed to start: %w", err)
	}

	if err := writeDatabaseURL(); err != nil {
		return fmt.Errorf("failed to update .env file: %w", err)
	}

	log.Println("✓ Database setup complete")
	return nil
}

func dockerInstalled() bool {
	return exec.Command("docker", "--version").Run() == nil
}

func postgresContainerRunning() bool {
	cmd := exec.Command("docker", "ps", "--filter", "name="+postgresContainerName, "--format", "{{.Names}}")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) == postgresContainerName
}

// containerHostPort reports the host port the container maps 5432 to.
func containerHostPort() (string, bool) {
	output, err := exec.Command("docker", "port", postgresContainerName, "5432").Output()
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.TrimSpace(string(output)), ":")
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

func startPostgresContainer() error {
	// Reuse a stopped container if one exists.
	cmd := exec.Command("docker", "ps", "-a", "--filter", "name="+postgresContainerName, "--format", "{{.Names}}")
	output, err := cmd.Output()
	if err == nil && strings.TrimSpace(string(output)) == postgresContainerName {
		if port, ok := containerHostPort(); ok {
			selectedPostgresPort = port
			log.Printf("Using existing container port: %s", selectedPostgresPort)
		}
		log.Println("Starting existing PostgreSQL container...")
		if err := exec.Command("docker", "start", postgresContainerName).Run(); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
		return nil
	}

	selectedPostgresPort = findAvailablePostgresPort()

	args := []string{
		"run",
		"-d",
		"--name", postgresContainerName,
		"-e", "POSTGRES_USER=" + defaultPostgresUser,
		"-e", "POSTGRES_PASSWORD=" + postgresPassword(),
		"-e", "POSTGRES_DB=" + defaultPostgresDB,
		"-p", selectedPostgresPort + ":5432",
		"--restart", "unless-stopped",
		"postgres:15-alpine",
	}

	log.Printf("Starting PostgreSQL container on port %s...", selectedPostgresPort)
	out, err := exec.Command("docker", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker run failed: %w\nOutput: %s", err, string(out))
	}
	return nil
}

func waitForPostgres() error {
	maxAttempts := 30
	for i := 0; i < maxAttempts; i++ {
		cmd := exec.Command("docker", "exec", postgresContainerName, "pg_isready", "-U", defaultPostgresUser)
		if cmd.Run() == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("PostgreSQL did not become ready after %d seconds", maxAttempts)
}

func databaseReachable(databaseURL string) bool {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return false
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.PingContext(ctx) == nil
}

// writeDatabaseURL sets DATABASE_URL in the process environment and
// persists it to .env if not already present there.
func writeDatabaseURL() error {
	databaseURL := fmt.Sprintf(
		"postgresql://%s:%s@localhost:%s/%s?sslmode=disable",
		defaultPostgresUser,
		postgresPassword(),
		selectedPostgresPort,
		defaultPostgresDB,
	)

	os.Setenv("DATABASE_URL", databaseURL)

	envPath := ".env"
	content := ""
	if data, err := os.ReadFile(envPath); err == nil {
		content = string(data)
	}

	if strings.Contains(content, "DATABASE_URL=") {
		return nil
	}

	f, err := os.OpenFile(envPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		f.WriteString("\n")
	}
	f.WriteString("# Auto-generated by unilocator\n")
	f.WriteString("DATABASE_URL=" + databaseURL + "\n")

	log.Println("✓ DATABASE_URL added to .env file")
	return nil
}

func isPortAvailable(port string) bool {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

func findAvailablePostgresPort() string {
	if isPortAvailable("5432") {
		return "5432"
	}

	log.Println("Port 5432 in use, trying alternatives...")
	for port := 5433; port <= 5450; port++ {
		portStr := fmt.Sprintf("%d", port)
		if isPortAvailable(portStr) {
			log.Printf("✓ Found available port: %s", portStr)
			return portStr
		}
	}

	log.Println("No available ports found between 5432-5450, will attempt 5432")
	return "5432"
}
