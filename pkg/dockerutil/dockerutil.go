// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dockerutil wraps the subset of the Docker daemon API the
// deployment stages need: building, removing, tagging, pushing, pulling
// and running images, plus registry login.
package dockerutil

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
)

// Client wraps a Docker daemon connection.
type Client struct {
	cli *client.Client
}

// New dials the daemon at host (empty means use the DOCKER_HOST
// environment / the platform default).
func New(host string) (*Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("dockerutil: connecting to daemon: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.cli.Close()
}

// BuildImage builds buildContextPath's Dockerfile, tagging the result
// imageTag and passing buildArgs verbatim, with intermediate container
// removal enabled.
func (c *Client) BuildImage(ctx context.Context, buildContextPath, imageTag string, buildArgs map[string]string) error {
	tarball, err := tarDirectory(buildContextPath)
	if err != nil {
		return fmt.Errorf("dockerutil: packing build context: %w", err)
	}

	args := make(map[string]*string, len(buildArgs))
	for k, v := range buildArgs {
		v := v
		args[k] = &v
	}

	resp, err := c.cli.ImageBuild(ctx, tarball, types.ImageBuildOptions{
		Tags:        []string{imageTag},
		BuildArgs:   args,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return fmt.Errorf("dockerutil: image build: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("dockerutil: reading build response: %w", err)
	}
	return nil
}

// RemoveImage deletes a local image. A missing image is not an error: it is
// reported as found=false with a nil error.
func (c *Client) RemoveImage(ctx context.Context, imageTag string) (found bool, err error) {
	_, err = c.cli.ImageRemove(ctx, imageTag, image.RemoveOptions{Force: true, PruneChildren: true})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("dockerutil: image remove: %w", err)
	}
	return true, nil
}

// TagImage adds newTag as an alias for source.
func (c *Client) TagImage(ctx context.Context, source, newTag string) error {
	if err := c.cli.ImageTag(ctx, source, newTag); err != nil {
		return fmt.Errorf("dockerutil: image tag: %w", err)
	}
	return nil
}

// PushImage streams a push of imageTag to its registry, using auth (may be
// empty for an anonymous/registry-configured push), and summarizes the
// response stream.
func (c *Client) PushImage(ctx context.Context, imageTag string, auth registry.AuthConfig) (string, error) {
	encodedAuth, err := registry.EncodeAuthConfig(auth)
	if err != nil {
		return "", fmt.Errorf("dockerutil: encoding auth: %w", err)
	}

	rc, err := c.cli.ImagePush(ctx, imageTag, image.PushOptions{RegistryAuth: encodedAuth})
	if err != nil {
		return "", fmt.Errorf("dockerutil: image push: %w", err)
	}
	defer rc.Close()

	return summarizeStream(rc)
}

// PullImage streams a pull of imageTag and summarizes the response stream.
func (c *Client) PullImage(ctx context.Context, imageTag string, auth registry.AuthConfig) (string, error) {
	encodedAuth, err := registry.EncodeAuthConfig(auth)
	if err != nil {
		return "", fmt.Errorf("dockerutil: encoding auth: %w", err)
	}

	rc, err := c.cli.ImagePull(ctx, imageTag, image.PullOptions{RegistryAuth: encodedAuth})
	if err != nil {
		return "", fmt.Errorf("dockerutil: image pull: %w", err)
	}
	defer rc.Close()

	return summarizeStream(rc)
}

// Login authenticates against a registry (typically Docker Hub).
func (c *Client) Login(ctx context.Context, auth registry.AuthConfig) error {
	_, err := c.cli.RegistryLogin(ctx, auth)
	if err != nil {
		return fmt.Errorf("dockerutil: registry login: %w", err)
	}
	return nil
}

// RunOptions configures a detached, auto-removed test container.
type RunOptions struct {
	ImageTag      string
	ContainerPort int
	HostLogDir    string
	GPURuntime    string
	GPUDevice     string
}

// RunContainer starts a detached, auto-remove container publishing
// ContainerPort, bind-mounting HostLogDir, and attaching a GPU device when
// RunOptions asks for one. It returns the container ID so the caller can
// stop it later.
func (c *Client) RunContainer(ctx context.Context, opts RunOptions) (string, error) {
	portBinding, err := nat.NewPort("tcp", fmt.Sprintf("%d", opts.ContainerPort))
	if err != nil {
		return "", fmt.Errorf("dockerutil: invalid container port: %w", err)
	}

	hostConfig := &container.HostConfig{
		AutoRemove: true,
		PortBindings: nat.PortMap{
			portBinding: []nat.PortBinding{{HostPort: fmt.Sprintf("%d", opts.ContainerPort)}},
		},
		Binds: []string{fmt.Sprintf("%s:/var/log/model", opts.HostLogDir)},
	}
	if opts.GPURuntime != "" {
		hostConfig.Runtime = opts.GPURuntime
		if opts.GPUDevice != "" {
			hostConfig.Resources.DeviceRequests = []container.DeviceRequest{{
				DeviceIDs:    []string{opts.GPUDevice},
				Capabilities: [][]string{{"gpu"}},
			}}
		}
	}

	created, err := c.cli.ContainerCreate(ctx, &container.Config{
		Image:        opts.ImageTag,
		ExposedPorts: nat.PortSet{portBinding: struct{}{}},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("dockerutil: container create: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("dockerutil: container start: %w", err)
	}
	return created.ID, nil
}

// StopContainer stops and (since the container was started with
// AutoRemove) implicitly removes a test container. Best-effort: the
// caller's stage-boundary error handler calls this even when the stage
// that launched the container already failed.
func (c *Client) StopContainer(ctx context.Context, containerID string) error {
	if containerID == "" {
		return nil
	}
	if err := c.cli.ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return fmt.Errorf("dockerutil: container stop: %w", err)
	}
	return nil
}

func summarizeStream(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return sb.String(), fmt.Errorf("dockerutil: reading stream: %w", err)
		}
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) == 0 {
		return "", nil
	}
	return lines[len(lines)-1], nil
}

func tarDirectory(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	defer tw.Close()

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &buf, nil
}
