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

// Package kubeutil wraps the subset of the Kubernetes API the deployment
// stages need: loading a Deployment or Service manifest from disk and
// creating or deleting the corresponding object.
package kubeutil

import (
	"context"
	"fmt"
	"os"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"
)

const defaultNamespace = "default"

// Client wraps a Kubernetes API connection.
type Client struct {
	clientset kubernetes.Interface
}

// New loads a kubeconfig (empty path uses the default loading rules:
// KUBECONFIG env var, then ~/.kube/config) and builds a Client from it.
func New(kubeconfigPath string) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("kubeutil: loading kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("kubeutil: building client: %w", err)
	}
	return &Client{clientset: clientset}, nil
}

// LoadDeployment parses a Deployment manifest, defaulting its namespace to
// "default" if it is absent.
func LoadDeployment(path string) (*appsv1.Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kubeutil: reading deployment manifest: %w", err)
	}
	var dp appsv1.Deployment
	if err := yaml.Unmarshal(data, &dp); err != nil {
		return nil, fmt.Errorf("kubeutil: parsing deployment manifest: %w", err)
	}
	if dp.Namespace == "" {
		dp.Namespace = defaultNamespace
	}
	return &dp, nil
}

// LoadService parses a Service manifest, defaulting its namespace to
// "default" if it is absent.
func LoadService(path string) (*corev1.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kubeutil: reading service manifest: %w", err)
	}
	var svc corev1.Service
	if err := yaml.Unmarshal(data, &svc); err != nil {
		return nil, fmt.Errorf("kubeutil: parsing service manifest: %w", err)
	}
	if svc.Namespace == "" {
		svc.Namespace = defaultNamespace
	}
	return &svc, nil
}

// CreateDeployment creates dp. An already-existing Deployment is reported
// as an error like any other create failure.
func (c *Client) CreateDeployment(ctx context.Context, dp *appsv1.Deployment) error {
	_, err := c.clientset.AppsV1().Deployments(dp.Namespace).Create(ctx, dp, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("kubeutil: creating deployment %s/%s: %w", dp.Namespace, dp.Name, err)
	}
	return nil
}

// CreateService creates svc.
func (c *Client) CreateService(ctx context.Context, svc *corev1.Service) error {
	_, err := c.clientset.CoreV1().Services(svc.Namespace).Create(ctx, svc, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("kubeutil: creating service %s/%s: %w", svc.Namespace, svc.Name, err)
	}
	return nil
}

// DeleteDeployment deletes the named Deployment using background
// propagation. A not-found error is reported via found=false, not as an
// error.
func (c *Client) DeleteDeployment(ctx context.Context, namespace, name string) (found bool, err error) {
	policy := metav1.DeletePropagationBackground
	err = c.clientset.AppsV1().Deployments(namespace).Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &policy})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kubeutil: deleting deployment %s/%s: %w", namespace, name, err)
	}
	return true, nil
}

// DeleteService deletes the named Service using background propagation. A
// not-found error is reported via found=false, not as an error.
func (c *Client) DeleteService(ctx context.Context, namespace, name string) (found bool, err error) {
	policy := metav1.DeletePropagationBackground
	err = c.clientset.CoreV1().Services(namespace).Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &policy})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kubeutil: deleting service %s/%s: %w", namespace, name, err)
	}
	return true, nil
}
