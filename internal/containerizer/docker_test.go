package containerizer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// init sets up the test environment
func init() {
	// Replace the exec command context with our mock in tests
	execCommandContext = mockExecCommandContext
}

// mockExecCommandContext is our mock implementation
func mockExecCommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", name}
	cs = append(cs, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// TestHelperProcess is a helper process for mocking exec.Command
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "No command\n")
		os.Exit(2)
	}

	cmd, args := args[0], args[1:]
	if cmd != "docker" {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "No docker subcommand\n")
		os.Exit(1)
	}

	switch args[0] {
	case "info":
		os.Exit(0)

	case "compose":
		if len(args) < 2 {
			os.Exit(1)
		}
		switch args[1] {
		case "ps":
			// docker compose ps -q <service>
			service := args[len(args)-1]
			if service == "ghost" {
				// Service exists but has no container.
				os.Exit(0)
			}
			fmt.Println("abc123def456789")
			os.Exit(0)
		case "restart":
			service := args[len(args)-1]
			if service == "broken" {
				fmt.Fprintf(os.Stderr, "no such service: broken\n")
				os.Exit(1)
			}
			os.Exit(0)
		case "exec":
			// docker compose exec -T <service> sh -lc '<probe>'
			for _, a := range args {
				if a == "down" {
					os.Exit(1)
				}
			}
			fmt.Println("<html>ok</html>")
			os.Exit(0)
		}

	case "inspect":
		// docker inspect <id> --format <tpl>
		if len(args) > 1 {
			switch args[1] {
			case "abc123def456789":
				fmt.Println("healthy")
				os.Exit(0)
			case "nohealth":
				fmt.Println("running")
				os.Exit(0)
			}
		}
		fmt.Fprintf(os.Stderr, "Error: No such object\n")
		os.Exit(1)

	case "logs":
		if len(args) > 1 && args[1] == "qbittorrent" {
			fmt.Println("The WebUI administrator username is: admin")
			fmt.Println("A temporary password is provided for this session: Xy12ab34")
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: No such container\n")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Unknown docker invocation: %v\n", args)
	os.Exit(1)
}

func TestNewDockerRuntime(t *testing.T) {
	runtime, err := NewDockerRuntime()
	if err != nil {
		// The docker binary itself may be missing on the test host; the
		// LookPath check runs before the mocked exec seam.
		if strings.Contains(err.Error(), "not found in PATH") {
			t.Skip("docker binary not installed")
		}
		t.Errorf("NewDockerRuntime() error = %v, want nil", err)
	}
	if err == nil && runtime == nil {
		t.Error("NewDockerRuntime() returned nil runtime")
	}
}

func TestDockerRuntime_ContainerID(t *testing.T) {
	d := &DockerRuntime{}
	ctx := context.Background()

	id, err := d.ContainerID(ctx, "prowlarr")
	if err != nil {
		t.Fatalf("ContainerID() error = %v, want nil", err)
	}
	if id != "abc123def456789" {
		t.Errorf("ContainerID() = %q, want %q", id, "abc123def456789")
	}
}

func TestDockerRuntime_ContainerID_NoContainer(t *testing.T) {
	d := &DockerRuntime{}
	ctx := context.Background()

	id, err := d.ContainerID(ctx, "ghost")
	if err != nil {
		t.Fatalf("ContainerID() error = %v, want nil", err)
	}
	if id != "" {
		t.Errorf("ContainerID() = %q, want empty", id)
	}
}

func TestDockerRuntime_Restart(t *testing.T) {
	d := &DockerRuntime{}
	ctx := context.Background()

	if err := d.Restart(ctx, "sabnzbd"); err != nil {
		t.Errorf("Restart() error = %v, want nil", err)
	}
	if err := d.Restart(ctx, "broken"); err == nil {
		t.Error("Restart() error = nil, want error")
	}
}

func TestDockerRuntime_HealthStatus(t *testing.T) {
	tests := []struct {
		name        string
		containerID string
		want        string
		expectError bool
	}{
		{
			name:        "container with health check",
			containerID: "abc123def456789",
			want:        "healthy",
		},
		{
			name:        "container without health check",
			containerID: "nohealth",
			want:        "running",
		},
		{
			name:        "unknown container",
			containerID: "deadbeef",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &DockerRuntime{}
			status, err := d.HealthStatus(context.Background(), tt.containerID)
			if (err != nil) != tt.expectError {
				t.Errorf("HealthStatus() error = %v, expectError %v", err, tt.expectError)
			}
			if !tt.expectError && status != tt.want {
				t.Errorf("HealthStatus() = %q, want %q", status, tt.want)
			}
		})
	}
}

func TestDockerRuntime_ExecHTTPProbe(t *testing.T) {
	d := &DockerRuntime{}
	ctx := context.Background()

	if !d.ExecHTTPProbe(ctx, "sabnzbd", 8080) {
		t.Error("ExecHTTPProbe() = false, want true")
	}
	if d.ExecHTTPProbe(ctx, "down", 8080) {
		t.Error("ExecHTTPProbe() = true for failing probe, want false")
	}
}

func TestDockerRuntime_Logs(t *testing.T) {
	d := &DockerRuntime{}
	ctx := context.Background()

	logs, err := d.Logs(ctx, "qbittorrent")
	if err != nil {
		t.Fatalf("Logs() error = %v, want nil", err)
	}
	if !strings.Contains(logs, "temporary password") {
		t.Errorf("Logs() = %q, want it to contain the password line", logs)
	}

	if _, err := d.Logs(ctx, "missing"); err == nil {
		t.Error("Logs() error = nil for missing container, want error")
	}
}
