package bundle

// runtimePrelude is the emitted boilerplate: an IIFE receiving the module
// table and returning a caching require. The fresh module record is stored
// in the cache before the body runs, so a cycle's back-edge observes the
// partially populated exports object instead of recursing forever.
const runtimePrelude = `(function (modules) {
  "use strict";
  var cache = {};
  function require(key) {
    var cached = cache[key];
    if (cached) {
      return cached.exports;
    }
    var module = { exports: {} };
    cache[key] = module;
    var factory = modules[key];
    if (!factory) {
      throw new Error("Module not found: " + key);
    }
    factory(module, module.exports, require);
    return module.exports;
  }
  return require;
})({
`
