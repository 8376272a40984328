package topofuzz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// clusterResponse is the reply shape of the cluster's admin endpoint.
type clusterResponse struct {
	Ok    bool
	Error string
}

// HTTPCluster issues membership actions against a real cluster's admin
// HTTP endpoint. It fires each action and returns as soon as the endpoint
// acknowledges it; it never waits for the cluster to converge.
type HTTPCluster struct {
	// Addr is the address of the admin endpoint, "host:port".
	Addr string
}

var _ Cluster = &HTTPCluster{}

// HTTPClusterConstructor builds HTTPCluster instances for one admin
// endpoint address.
type HTTPClusterConstructor struct {
	Addr string
}

var _ ClusterConstructor = &HTTPClusterConstructor{}

func (c *HTTPClusterConstructor) NewCluster(nodes []string) Cluster {
	return &HTTPCluster{Addr: c.Addr}
}

func (c *HTTPCluster) post(endpoint string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling json: %s", err)
	}
	res, err := http.Post("http://"+c.Addr+endpoint, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("error posting to cluster: %s", err)
	}
	defer res.Body.Close()
	resData, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("error reading cluster response: %s", err)
	}
	response := &clusterResponse{}
	if err = json.Unmarshal(resData, response); err != nil {
		return fmt.Errorf("error parsing cluster response: %s", err)
	}
	if !response.Ok {
		return fmt.Errorf("cluster rejected %s: %s", endpoint, response.Error)
	}
	return nil
}

func (c *HTTPCluster) Reset() {
	c.post("/reset", map[string]interface{}{})
}

func (c *HTTPCluster) AddNode(rCtx *RunContext, node string, joinVia string) error {
	rCtx.AddEvent(&Event{
		Name: "ClusterAddNode",
		Node: node,
		Params: map[string]interface{}{
			"join_via": joinVia,
		},
	})
	return c.post("/membership", map[string]interface{}{
		"op":       string(OpAddNode),
		"node":     node,
		"join_via": joinVia,
	})
}

func (c *HTTPCluster) RemoveNode(rCtx *RunContext, node string) error {
	rCtx.AddEvent(&Event{
		Name:   "ClusterRemoveNode",
		Node:   node,
		Params: map[string]interface{}{},
	})
	return c.post("/membership", map[string]interface{}{
		"op":   string(OpRemoveNode),
		"node": node,
	})
}

func (c *HTTPCluster) RemoveLogNode(rCtx *RunContext, node string) error {
	rCtx.AddEvent(&Event{
		Name:   "ClusterRemoveLogNode",
		Node:   node,
		Params: map[string]interface{}{},
	})
	return c.post("/membership", map[string]interface{}{
		"op":   string(OpRemoveLogNode),
		"node": node,
	})
}

func (c *HTTPCluster) PushLogConfiguration(rCtx *RunContext, config [][]string) error {
	rCtx.AddEvent(&Event{
		Name: "PushLogConfiguration",
		Params: map[string]interface{}{
			"config": config,
		},
	})
	return c.post("/log/configuration", map[string]interface{}{
		"config": config,
	})
}

func (c *HTTPCluster) ClientRequest(rCtx *RunContext, reqNum string) error {
	rCtx.AddEvent(&Event{
		Name: "ClientRequest",
		Params: map[string]interface{}{
			"request": reqNum,
		},
	})
	return c.post("/client", map[string]interface{}{
		"request": reqNum,
	})
}
