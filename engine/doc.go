// Package engine loads WebAssembly addons on wazero.
//
// Loader implements dynlib.Loader, so wasm addons are resolved and
// registered exactly like native ones. Every addon imports its ABI from
// the "napi" host module:
//
//	get_undefined() -> h                 get_global() -> h
//	create_object() -> h                 create_string_utf8(ptr, len) -> h
//	create_int32(i32) -> h               create_double(f64) -> h
//	get_value_int32(h) -> i32            get_value_double(h) -> f64
//	set_named_property(obj, ptr, len, v) -> status
//	get_named_property(obj, ptr, len) -> h
//	create_function(name_ptr, name_len, export_ptr, export_len) -> h
//	get_argc() -> i32                    get_arg(i) -> h
//	get_this() -> h                      throw_error(ptr, len) -> status
//	create_buffer_copy(ptr, len) -> h    module_register(ptr, len) -> i32
//
// Values cross the boundary as handles that are valid for one call from
// the host into the module; handle 0 means "no value". Strings and byte
// ranges are read from the module's exported memory.
//
// # Registration
//
// An addon either exports napi_register_module_v1(env, exports) -> exports
// (optionally with node_api_module_get_api_version_v1() -> version), or
// calls module_register with the name of such an export from its
// _initialize function. The latter is reported to the LegacyHandler with
// the module path as owner.
//
// Functions created with create_function call back into the named export
// with the signature (env, info) -> result; get_argc, get_arg and get_this
// read the current call's arguments.
package engine
