package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall-mcp/pkg/types"
)

func findSymbol(t *testing.T, result *types.ParseResult, name string) *types.Symbol {
	t.Helper()
	for i := range result.Symbols {
		if result.Symbols[i].Name == name {
			return &result.Symbols[i]
		}
	}
	t.Fatalf("symbol %q not found in %+v", name, result.Symbols)
	return nil
}

func TestForFile(t *testing.T) {
	assert.Equal(t, "go", LanguageForFile("cmd/main.go"))
	assert.Equal(t, "typescript", LanguageForFile("src/App.tsx"))
	assert.Equal(t, "typescript", LanguageForFile("lib/util.mjs"))
	assert.Equal(t, "python", LanguageForFile("scripts/deploy.py"))
	assert.Nil(t, ForFile("README.md"))
	assert.False(t, Supported("styles.css"))
}

func TestGoParser(t *testing.T) {
	src := []byte(`package auth

import (
	"context"
	stderrors "errors"
)

const MaxRetries = 3

var timeout = 30

type Client struct {
	token string
}

type Signer interface {
	Sign(data []byte) ([]byte, error)
}

func NewClient(token string) (*Client, error) {
	return &Client{token: token}, nil
}

func (c *Client) Refresh(ctx context.Context) error {
	return stderrors.New("not implemented")
}

func helper() {}
`)
	result := (&GoParser{}).Parse("auth.go", src)
	require.False(t, result.HasErrors())

	require.Len(t, result.Imports, 2)
	assert.Equal(t, "context", result.Imports[0].SourcePath)
	assert.Equal(t, "stderrors", result.Imports[1].LocalName)
	assert.True(t, result.Imports[0].IsNamespace)

	client := findSymbol(t, result, "Client")
	assert.Equal(t, types.KindClass, client.Kind)
	assert.True(t, client.Exported)

	signer := findSymbol(t, result, "Signer")
	assert.Equal(t, types.KindInterface, signer.Kind)

	newClient := findSymbol(t, result, "NewClient")
	assert.Equal(t, types.KindFunction, newClient.Kind)
	assert.Contains(t, newClient.Signature, "NewClient(token string)")

	refresh := findSymbol(t, result, "Refresh")
	assert.Equal(t, types.KindMethod, refresh.Kind)
	assert.Equal(t, "Client", refresh.Scope)

	helper := findSymbol(t, result, "helper")
	assert.False(t, helper.Exported)

	maxRetries := findSymbol(t, result, "MaxRetries")
	assert.Equal(t, types.KindConst, maxRetries.Kind)
	timeoutVar := findSymbol(t, result, "timeout")
	assert.Equal(t, types.KindVariable, timeoutVar.Kind)
}

func TestGoParserSyntaxError(t *testing.T) {
	src := []byte("package broken\n\nfunc Good() {}\n\nfunc Bad( {\n")
	result := (&GoParser{}).Parse("broken.go", src)

	assert.True(t, result.HasErrors())
	// Partial AST still yields the well-formed declaration
	findSymbol(t, result, "Good")
}

func TestTypeScriptExports(t *testing.T) {
	src := []byte(`export function foo(a: number): string {
  return String(a);
}

function bar() {
  return 1;
}

export default class ApiClient {
  private token: string;

  constructor(token: string) {
    this.token = token;
  }

  request(path: string) {
    return fetch(path);
  }

  private sign(body: string) {
    return body;
  }
}

export interface User {
  id: string;
}

export type UserID = string;

export enum Role {
  Admin,
  Member,
}

export const limit = 10;
const internal = true;
export const handler = async (req) => process(req);
`)
	result := (&TypeScriptParser{}).Parse("api.ts", src)
	require.False(t, result.HasErrors())

	foo := findSymbol(t, result, "foo")
	assert.Equal(t, types.KindFunction, foo.Kind)
	assert.True(t, foo.Exported)
	assert.Equal(t, 1, foo.Line)
	assert.Equal(t, 3, foo.EndLine)

	bar := findSymbol(t, result, "bar")
	assert.False(t, bar.Exported)

	client := findSymbol(t, result, "ApiClient")
	assert.Equal(t, types.KindClass, client.Kind)
	assert.True(t, client.Exported)
	assert.True(t, client.IsDefault)

	request := findSymbol(t, result, "request")
	assert.Equal(t, types.KindMethod, request.Kind)
	assert.Equal(t, "ApiClient", request.Scope)
	assert.True(t, request.Exported)

	sign := findSymbol(t, result, "sign")
	assert.False(t, sign.Exported)

	for _, sym := range result.Symbols {
		assert.NotEqual(t, "constructor", sym.Name)
	}

	user := findSymbol(t, result, "User")
	assert.Equal(t, types.KindInterface, user.Kind)
	userID := findSymbol(t, result, "UserID")
	assert.Equal(t, types.KindType, userID.Kind)
	role := findSymbol(t, result, "Role")
	assert.Equal(t, types.KindEnum, role.Kind)

	limit := findSymbol(t, result, "limit")
	assert.Equal(t, types.KindConst, limit.Kind)
	assert.True(t, limit.Exported)
	internal := findSymbol(t, result, "internal")
	assert.False(t, internal.Exported)

	handler := findSymbol(t, result, "handler")
	assert.Equal(t, types.KindFunction, handler.Kind, "arrow function bindings are functions")
}

func TestTypeScriptExportRemoved(t *testing.T) {
	exported := (&TypeScriptParser{}).Parse("a.ts", []byte("export function foo() {}\n"))
	plain := (&TypeScriptParser{}).Parse("a.ts", []byte("function foo() {}\n"))

	assert.True(t, findSymbol(t, exported, "foo").Exported)
	assert.False(t, findSymbol(t, plain, "foo").Exported)
}

func TestTypeScriptImports(t *testing.T) {
	src := []byte(`import React from 'react';
import { useState, useEffect as effect } from 'react';
import * as path from 'node:path';
import type { Config } from './config';
import './styles.css';
import Default, { named } from './mixed';
const legacy = require('./legacy');
export { helper } from './helpers';
export * from './types';
`)
	result := (&TypeScriptParser{}).Parse("app.tsx", src)
	require.False(t, result.HasErrors())
	assert.Empty(t, result.Symbols, "imports and re-exports declare nothing locally")

	byLine := map[int][]types.Import{}
	for _, imp := range result.Imports {
		byLine[imp.Line] = append(byLine[imp.Line], imp)
	}

	react := byLine[1][0]
	assert.True(t, react.IsDefault)
	assert.Equal(t, "React", react.LocalName)
	assert.Equal(t, "react", react.SourcePath)

	require.Len(t, byLine[2], 2)
	assert.Equal(t, "useState", byLine[2][0].ImportedName)
	assert.Equal(t, "useEffect", byLine[2][1].ImportedName)
	assert.Equal(t, "effect", byLine[2][1].LocalName)

	ns := byLine[3][0]
	assert.True(t, ns.IsNamespace)
	assert.Equal(t, "path", ns.LocalName)
	assert.Equal(t, "*", ns.ImportedName)

	typeOnly := byLine[4][0]
	assert.True(t, typeOnly.IsType)
	assert.Equal(t, "Config", typeOnly.ImportedName)

	sideEffect := byLine[5][0]
	assert.True(t, sideEffect.IsNamespace)
	assert.Equal(t, "./styles.css", sideEffect.SourcePath)

	require.Len(t, byLine[6], 2)
	assert.True(t, byLine[6][0].IsDefault)
	assert.Equal(t, "named", byLine[6][1].ImportedName)

	legacy := byLine[7][0]
	assert.Equal(t, "legacy", legacy.LocalName)
	assert.Equal(t, "./legacy", legacy.SourcePath)

	reExport := byLine[8][0]
	assert.Equal(t, "helper", reExport.ImportedName)
	assert.Equal(t, "./helpers", reExport.SourcePath)

	star := byLine[9][0]
	assert.True(t, star.IsNamespace)
	assert.Equal(t, "./types", star.SourcePath)
}

func TestTypeScriptCommentsIgnored(t *testing.T) {
	src := []byte(`// export function commented() {}
/* export class AlsoCommented {} */
/*
export const hidden = 1;
*/
export function real() {}
`)
	result := (&TypeScriptParser{}).Parse("c.ts", src)
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "real", result.Symbols[0].Name)
}

func TestPythonParser(t *testing.T) {
	src := []byte(`import os
import numpy as np
from collections import OrderedDict, defaultdict as dd
from .models import User
from legacy import *

MAX_SIZE = 1024
debug = False
_secret = "x"

def handler(request):
    def inner():
        pass
    return inner

async def fetch_all():
    pass

def _private_helper():
    pass

class Repository:
    def save(self, obj):
        pass

    def _reload(self):
        pass

class _Hidden:
    pass
`)
	result := (&PythonParser{}).Parse("repo.py", src)
	require.False(t, result.HasErrors())

	os := result.Imports[0]
	assert.True(t, os.IsNamespace)
	assert.Equal(t, "os", os.SourcePath)

	np := result.Imports[1]
	assert.Equal(t, "np", np.LocalName)

	ordered := result.Imports[2]
	assert.Equal(t, "OrderedDict", ordered.ImportedName)
	assert.Equal(t, "collections", ordered.SourcePath)
	dd := result.Imports[3]
	assert.Equal(t, "dd", dd.LocalName)

	relative := result.Imports[4]
	assert.Equal(t, ".models", relative.SourcePath)
	assert.Equal(t, "User", relative.ImportedName)

	star := result.Imports[5]
	assert.True(t, star.IsNamespace)
	assert.Equal(t, "*", star.ImportedName)

	maxSize := findSymbol(t, result, "MAX_SIZE")
	assert.Equal(t, types.KindConst, maxSize.Kind)
	debug := findSymbol(t, result, "debug")
	assert.Equal(t, types.KindVariable, debug.Kind)
	secret := findSymbol(t, result, "_secret")
	assert.False(t, secret.Exported)

	handler := findSymbol(t, result, "handler")
	assert.Equal(t, types.KindFunction, handler.Kind)
	assert.True(t, handler.Exported)
	assert.Greater(t, handler.EndLine, handler.Line)

	for _, sym := range result.Symbols {
		assert.NotEqual(t, "inner", sym.Name, "nested functions are not indexed")
	}

	fetchAll := findSymbol(t, result, "fetch_all")
	assert.Equal(t, types.KindFunction, fetchAll.Kind)

	private := findSymbol(t, result, "_private_helper")
	assert.False(t, private.Exported)

	repo := findSymbol(t, result, "Repository")
	assert.Equal(t, types.KindClass, repo.Kind)
	assert.True(t, repo.Exported)

	save := findSymbol(t, result, "save")
	assert.Equal(t, types.KindMethod, save.Kind)
	assert.Equal(t, "Repository", save.Scope)
	assert.True(t, save.Exported)

	reload := findSymbol(t, result, "_reload")
	assert.False(t, reload.Exported)

	hidden := findSymbol(t, result, "_Hidden")
	assert.False(t, hidden.Exported)
}

func TestPythonClassExtent(t *testing.T) {
	src := []byte(`class Small:
    def only(self):
        return 1

AFTER = 2
`)
	result := (&PythonParser{}).Parse("s.py", src)

	small := findSymbol(t, result, "Small")
	assert.Equal(t, 1, small.Line)
	assert.Equal(t, 3, small.EndLine)

	only := findSymbol(t, result, "only")
	assert.Equal(t, 2, only.Line)
	assert.Equal(t, 3, only.EndLine)
}
