// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync client application runtime.
//
// It opens the local database through the sync engine, dispatches the
// command given on the command line and closes the database again. The
// long-running commands are "daemon", which runs the background sync job
// until a stop signal, and "console", which shows the status console.
//
// Commands:
//
//	register <login> <password>   create an account and keep the session
//	login <login> <password>      log in and keep the session
//	logout                        forget the session token
//	sync                          push, then pull (default)
//	push | pull                   one direction only
//	status                        print the engine status as JSON
//	heal                          re-check and rebuild the local database
//	retry                         release rejected changes for the next push
//	daemon                        run the background sync job
//	console                       open the status console
//	put <table> <json-row>        insert or update a row
//	get <table> <json-pk>         print a row
//	delete <table> <json-pk>      delete a row
package client
