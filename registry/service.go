// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"net/http"

	"github.com/gorilla/rpc/v2"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

// Name is the JSON-RPC service name; methods are called as deployments.<method>.
const Name = "deployments"

// Service is the API service over a Registry
type Service struct{ reg *Registry }

// GetDeploymentArgs selects one record
type GetDeploymentArgs struct {
	Network string `json:"network"`
	Name    string `json:"name"`
}

// GetDeploymentReply is the record asked for
type GetDeploymentReply struct {
	Deployment *Deployment `json:"deployment"`
}

// ListDeploymentsArgs selects a network
type ListDeploymentsArgs struct {
	Network string `json:"network"`
}

// ListDeploymentsReply is every record of a network. ChainID is zero when
// the network has no .chainId.
type ListDeploymentsReply struct {
	Deployments []*Deployment `json:"deployments"`
	ChainID     cjson.Uint64  `json:"chainId"`
}

// NetworksReply is the networks with records
type NetworksReply struct {
	Networks []string `json:"networks"`
}

// GetDeployment returns the record of [args.Name] on [args.Network]
func (s *Service) GetDeployment(_ *http.Request, args *GetDeploymentArgs, reply *GetDeploymentReply) error {
	d, err := s.reg.Get(args.Network, args.Name)
	if err != nil {
		return err
	}
	reply.Deployment = d
	return nil
}

// ListDeployments returns the records of [args.Network] sorted by name
func (s *Service) ListDeployments(_ *http.Request, args *ListDeploymentsArgs, reply *ListDeploymentsReply) error {
	ds, err := s.reg.List(args.Network)
	if err != nil {
		return err
	}
	id, _, err := s.reg.ChainID(args.Network)
	if err != nil {
		return err
	}
	reply.Deployments = ds
	if reply.Deployments == nil {
		reply.Deployments = []*Deployment{}
	}
	reply.ChainID = cjson.Uint64(id)
	return nil
}

func (s *Service) Networks(_ *http.Request, _ *struct{}, reply *NetworksReply) error {
	networks, err := s.reg.Networks()
	if err != nil {
		return err
	}
	reply.Networks = networks
	return nil
}

// NewHandler serves the registry over JSON-RPC
func NewHandler(reg *Registry) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(&Service{reg: reg}, Name); err != nil {
		return nil, err
	}
	return server, nil
}
